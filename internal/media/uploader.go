package media

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sakif/car-listings/internal/apperror"
)

// File is one uploaded image as received from the client.
type File struct {
	Name string
	Data []byte
}

// Uploader stores a batch of images concurrently.
//
// WHY A LIMIT?
// A listing can carry several large images. Uploading them one by one is
// slow; uploading all of them at once can open too many connections to the
// media host. errgroup.SetLimit caps how many Puts run at a time.
type Uploader struct {
	store       Store
	concurrency int
	now         func() time.Time
}

// NewUploader returns an Uploader running at most concurrency Puts at once.
// Values below 1 mean one at a time.
func NewUploader(store Store, concurrency int) *Uploader {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Uploader{store: store, concurrency: concurrency, now: time.Now}
}

// Upload stores files under the account's prefix and returns their URLs in
// the same order as files.
//
// Every file is checked before anything is stored, so a batch with one
// non-image in it uploads nothing. If a Put fails the remaining Puts are
// cancelled; objects already written stay behind.
func (u *Uploader) Upload(ctx context.Context, accountID string, files []File) ([]string, error) {
	objects := make([]Object, len(files))
	at := u.now().UTC()
	for i, f := range files {
		m := sniff(f.Data)
		if !isImage(m) {
			return nil, apperror.ValidationFailed("images",
				fmt.Sprintf("%s is not a supported image", displayName(f.Name, i)))
		}
		objects[i] = Object{
			Key:         objectKey(accountID, at, m.Extension()),
			ContentType: m.String(),
			Data:        f.Data,
		}
	}

	urls := make([]string, len(objects))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(u.concurrency)
	for i, obj := range objects {
		g.Go(func() error {
			url, err := u.store.Put(ctx, obj)
			if err != nil {
				return err
			}
			urls[i] = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return urls, nil
}

func displayName(name string, i int) string {
	if name != "" {
		return name
	}
	return fmt.Sprintf("image %d", i+1)
}
