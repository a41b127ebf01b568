package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/car-listings/internal/apperror"
	"github.com/sakif/car-listings/internal/media"
	"github.com/sakif/car-listings/internal/model"
	"github.com/sakif/car-listings/internal/repository"
)

// DefaultMaxImages caps the images on one listing when no limit is configured.
const DefaultMaxImages = 10

// ImageUploader stores a batch of images and returns their URLs in order.
// *media.Uploader is the production implementation.
type ImageUploader interface {
	Upload(ctx context.Context, accountID string, files []media.File) ([]string, error)
}

// CarService manages the authenticated account's listings.
//
// Every method takes the account ID from the request context, never from
// the client. It is passed straight through to the repository, whose
// methods are all scoped by it.
type CarService struct {
	accounts  repository.AccountRepository
	cars      repository.CarRepository
	uploader  ImageUploader
	maxImages int
	logger    *slog.Logger
}

func NewCarService(
	accounts repository.AccountRepository,
	cars repository.CarRepository,
	uploader ImageUploader,
	maxImages int,
	logger *slog.Logger,
) *CarService {
	if maxImages < 1 {
		maxImages = DefaultMaxImages
	}
	return &CarService{
		accounts:  accounts,
		cars:      cars,
		uploader:  uploader,
		maxImages: maxImages,
		logger:    logger,
	}
}

// NewCarInput is the addCar form.
type NewCarInput struct {
	Title       string
	Description string
	Tags        string
	Images      []media.File
}

// UpdateCarInput is a partial update. Nil or blank fields are left alone.
type UpdateCarInput struct {
	Title       *string
	Description *string
	Tags        *string
}

// AddCar uploads the images and appends the car to the account's listings.
//
// The account is resolved before anything is uploaded, so a token for a
// deleted account cannot leave orphaned images on the media host.
func (s *CarService) AddCar(ctx context.Context, accountID string, in NewCarInput) (*model.Car, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Tags = strings.TrimSpace(in.Tags)

	switch {
	case in.Title == "":
		return nil, apperror.ValidationFailed("title", "title is required")
	case in.Description == "":
		return nil, apperror.ValidationFailed("description", "description is required")
	case in.Tags == "":
		return nil, apperror.ValidationFailed("tags", "tags are required")
	case len(in.Images) == 0:
		return nil, apperror.ValidationFailed("images", "at least one image is required")
	case len(in.Images) > s.maxImages:
		return nil, apperror.ValidationFailed("images",
			fmt.Sprintf("at most %d images are allowed", s.maxImages))
	}

	if _, err := s.accounts.GetAccountByID(ctx, accountID); err != nil {
		return nil, fmt.Errorf("service/car: resolving account %s: %w", accountID, err)
	}

	urls, err := s.uploader.Upload(ctx, accountID, in.Images)
	if err != nil {
		return nil, fmt.Errorf("service/car: uploading images: %w", err)
	}

	car := &model.Car{
		Title:       in.Title,
		Description: in.Description,
		Tags:        in.Tags,
		Images:      urls,
	}
	if err := s.cars.AddCar(ctx, accountID, car); err != nil {
		return nil, fmt.Errorf("service/car: saving car: %w", err)
	}

	s.logger.Info("car added",
		slog.String("accountID", accountID),
		slog.String("carID", car.ID),
		slog.Int("images", len(urls)),
	)
	return car, nil
}

// ListCars returns the account's cars, oldest first.
func (s *CarService) ListCars(ctx context.Context, accountID string) ([]model.Car, error) {
	cars, err := s.cars.ListCars(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("service/car: listing cars: %w", err)
	}
	return cars, nil
}

// GetCar returns one of the account's cars. A car owned by anyone else is
// reported as not found.
func (s *CarService) GetCar(ctx context.Context, accountID, carID string) (*model.Car, error) {
	car, err := s.cars.FindCar(ctx, accountID, carID)
	if err != nil {
		return nil, fmt.Errorf("service/car: getting car: %w", err)
	}
	return car, nil
}

// UpdateCar changes the title, description or tags. Images and CreatedAt
// cannot be changed.
func (s *CarService) UpdateCar(ctx context.Context, accountID, carID string, in UpdateCarInput) (*model.Car, error) {
	patch := model.CarPatch{
		Title:       nonBlank(in.Title),
		Description: nonBlank(in.Description),
		Tags:        nonBlank(in.Tags),
	}

	car, err := s.cars.UpdateCar(ctx, accountID, carID, patch)
	if err != nil {
		return nil, fmt.Errorf("service/car: updating car: %w", err)
	}

	s.logger.Info("car updated", slog.String("accountID", accountID), slog.String("carID", carID))
	return car, nil
}

// DeleteCar removes one of the account's cars. Its images stay on the media
// host.
func (s *CarService) DeleteCar(ctx context.Context, accountID, carID string) error {
	if err := s.cars.DeleteCar(ctx, accountID, carID); err != nil {
		return fmt.Errorf("service/car: deleting car: %w", err)
	}

	s.logger.Info("car deleted", slog.String("accountID", accountID), slog.String("carID", carID))
	return nil
}

// nonBlank trims *p and returns nil when nothing is left.
func nonBlank(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}
