package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/car-listings/internal/apperror"
	"github.com/sakif/car-listings/internal/auth"
	"github.com/sakif/car-listings/internal/media"
	"github.com/sakif/car-listings/internal/model"
	"github.com/sakif/car-listings/internal/service"
)

// imageField is the multipart field name the listing images arrive under.
const imageField = "image"

// CarHandler serves the listing endpoints. Every route is behind
// auth.RequireAuth, and the account ID always comes from the request
// context, never from the URL or body.
//
// ROUTES (mounted under /api):
//   - POST   /addCar           → HandleAddCar
//   - GET    /allCars          → HandleAllCars
//   - GET    /carDetails/{id}  → HandleGetCar
//   - PUT    /carDetails/{id}  → HandleUpdateCar
//   - DELETE /carDetails/{id}  → HandleDeleteCar
type CarHandler struct {
	cars      *service.CarService
	maxUpload int64
	maxImages int
	logger    *slog.Logger
}

// NewCarHandler creates a CarHandler. maxUpload caps the whole multipart
// body of /addCar in bytes.
func NewCarHandler(cars *service.CarService, maxUpload int64, maxImages int, logger *slog.Logger) *CarHandler {
	return &CarHandler{
		cars:      cars,
		maxUpload: maxUpload,
		maxImages: maxImages,
		logger:    logger,
	}
}

// AddCarResponse is returned by /addCar.
type AddCarResponse struct {
	Message string     `json:"message"`
	Car     *model.Car `json:"car"`
}

type updateCarRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Tags        *string `json:"tags"`
}

// accountID pulls the authenticated account out of the context. Routes are
// always mounted behind RequireAuth, so a miss is a wiring bug.
func (h *CarHandler) accountID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := auth.AccountIDFromContext(r.Context())
	if !ok {
		writeError(w, r, h.logger, errors.New("handler: car route reached without authentication"))
		return "", false
	}
	return id, true
}

// HandleAddCar creates a listing from a multipart form.
//
// HTTP: POST /api/addCar
// Form: title, description, tags, and one or more files under "image".
func (h *CarHandler) HandleAddCar(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.accountID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, r, h.logger, apperror.ValidationFailed("images",
				fmt.Sprintf("upload exceeds %d bytes", h.maxUpload)))
			return
		}
		writeError(w, r, h.logger, apperror.ValidationFailed("", "request must be multipart/form-data"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File[imageField]
	if len(headers) > h.maxImages {
		writeError(w, r, h.logger, apperror.ValidationFailed("images",
			fmt.Sprintf("at most %d images are allowed", h.maxImages)))
		return
	}

	files, err := readFiles(headers)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	car, err := h.cars.AddCar(r.Context(), accountID, service.NewCarInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Tags:        r.FormValue("tags"),
		Images:      files,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, AddCarResponse{Message: "Car details added successfully", Car: car})
}

func readFiles(headers []*multipart.FileHeader) ([]media.File, error) {
	files := make([]media.File, 0, len(headers))
	for _, fh := range headers {
		data, err := readFile(fh)
		if err != nil {
			return nil, err
		}
		files = append(files, media.File{Name: fh.Filename, Data: data})
	}
	return files, nil
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("handler: opening upload %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("handler: reading upload %s: %w", fh.Filename, err)
	}
	return data, nil
}

// HandleAllCars lists the account's cars, oldest first. An account with no
// cars gets [] rather than null.
//
// HTTP: GET /api/allCars
func (h *CarHandler) HandleAllCars(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.accountID(w, r)
	if !ok {
		return
	}

	cars, err := h.cars.ListCars(r.Context(), accountID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if cars == nil {
		cars = []model.Car{}
	}

	writeJSON(w, http.StatusOK, cars)
}

// HandleGetCar returns one car.
//
// HTTP: GET /api/carDetails/{id}
// 404 when the car does not exist or belongs to another account.
func (h *CarHandler) HandleGetCar(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.accountID(w, r)
	if !ok {
		return
	}

	car, err := h.cars.GetCar(r.Context(), accountID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, car)
}

// HandleUpdateCar changes title, description or tags. Missing or blank
// fields keep their current value.
//
// HTTP: PUT /api/carDetails/{id}
// Body: {"title"?, "description"?, "tags"?}
func (h *CarHandler) HandleUpdateCar(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.accountID(w, r)
	if !ok {
		return
	}

	var req updateCarRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	car, err := h.cars.UpdateCar(r.Context(), accountID, chi.URLParam(r, "id"), service.UpdateCarInput{
		Title:       req.Title,
		Description: req.Description,
		Tags:        req.Tags,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, car)
}

// HandleDeleteCar removes one car.
//
// HTTP: DELETE /api/carDetails/{id}
func (h *CarHandler) HandleDeleteCar(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.accountID(w, r)
	if !ok {
		return
	}

	if err := h.cars.DeleteCar(r.Context(), accountID, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Car deleted successfully"})
}
