package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"storefront/internal/service"
	"storefront/internal/storage"
)

// multipartOverhead cubre las cabeceras y el resto de campos del formulario
const multipartOverhead = 1 << 20

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// respondError traduce los errores del servicio a códigos HTTP.
// Los 500 nunca exponen el detalle, solo se registra.
func respondError(c *gin.Context, logger logrus.FieldLogger, err error) {
	var (
		verr   *service.ValidationError
		tooBig *http.MaxBytesError
	)

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: verr.Message})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrUserDeactivated):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: err.Error()})
	case errors.Is(err, storage.ErrTooLarge), errors.As(err, &tooBig), errors.Is(err, multipart.ErrMessageTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: storage.ErrTooLarge.Error()})
	case errors.Is(err, storage.ErrUnsupportedType), errors.Is(err, storage.ErrNoFile):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, http.ErrNotMultipart):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "multipart form expected"})
	default:
		logger.Errorf("Handler Error: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

// formFile lee un archivo del formulario limitando el tamaño del cuerpo
func formFile(c *gin.Context, field string, maxBytes int64) (*multipart.FileHeader, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+multipartOverhead)

	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, storage.ErrNoFile
		}
		return nil, err
	}
	return fh, nil
}
