package handlers

import (
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/feedback-service/internal/api/dto"
	"github.com/spec-kit/feedback-service/internal/service"
	apperrors "github.com/spec-kit/feedback-service/pkg/util"
)

// ProductsHandler exposes catalog endpoints. Create and update take multipart
// forms so the optional image rides along with the scalar fields.
type ProductsHandler struct {
	catalog *service.CatalogService
}

// NewProductsHandler constructs handler.
func NewProductsHandler(catalogService *service.CatalogService) *ProductsHandler {
	return &ProductsHandler{catalog: catalogService}
}

// List GET /api/products.
func (h *ProductsHandler) List(c *fiber.Ctx) error {
	products, err := h.catalog.List(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.ProductResponse, 0, len(products))
	for i := range products {
		items = append(items, dto.NewProductResponse(&products[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /api/products/:id.
func (h *ProductsHandler) Get(c *fiber.Ctx) error {
	product, err := h.catalog.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewProductResponse(product)})
}

// Create POST /api/products/upload.
func (h *ProductsHandler) Create(c *fiber.Ctx) error {
	input, cleanup, err := parseProductForm(c)
	if err != nil {
		return err
	}
	defer cleanup()

	product, err := h.catalog.Create(c.Context(), input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewProductResponse(product)})
}

// Update PUT /api/products/:id.
func (h *ProductsHandler) Update(c *fiber.Ctx) error {
	input, cleanup, err := parseProductForm(c)
	if err != nil {
		return err
	}
	defer cleanup()

	product, err := h.catalog.Update(c.Context(), c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewProductResponse(product)})
}

// Delete DELETE /api/products/:id. Deleting a product removes its feedback.
func (h *ProductsHandler) Delete(c *fiber.Ctx) error {
	if err := h.catalog.Delete(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// parseProductForm reads the multipart fields shared by create and update.
// The returned cleanup closes the image file, when one was attached.
func parseProductForm(c *fiber.Ctx) (service.ProductInput, func(), error) {
	noop := func() {}

	input := service.ProductInput{
		Name:     c.FormValue("name"),
		Category: c.FormValue("category"),
	}
	if desc := c.FormValue("description"); desc != "" {
		input.Description = &desc
	}

	var err error
	if input.Price, err = parseFloatField(c.FormValue("price"), 0); err != nil {
		return input, noop, apperrors.NewValidationError("invalid price", nil)
	}
	if input.Cost, err = parseFloatField(c.FormValue("cost"), 0); err != nil {
		return input, noop, apperrors.NewValidationError("invalid cost", nil)
	}
	if input.Discount, err = parseIntField(c.FormValue("discount"), 0); err != nil {
		return input, noop, apperrors.NewValidationError("invalid discount", nil)
	}

	fileHeader, err := c.FormFile("image")
	if err != nil || fileHeader == nil || fileHeader.Size == 0 {
		return input, noop, nil
	}
	file, err := openFormFile(fileHeader)
	if err != nil {
		return input, noop, apperrors.NewValidationError("could not read image", nil)
	}
	input.Image = &service.ImageUpload{FileName: fileHeader.Filename, Reader: file}
	return input, func() { file.Close() }, nil
}

func openFormFile(header *multipart.FileHeader) (multipart.File, error) {
	return header.Open()
}

func parseFloatField(raw string, fallback float64) (float64, error) {
	if raw == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(raw, 64)
}

func parseIntField(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
