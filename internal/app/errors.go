package app

import (
	"fmt"
	"net/http"
)

type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}

func errValidation(message string) *DomainError {
	return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", message, nil)
}

func errNotFound(message string) *DomainError {
	return domainError(http.StatusNotFound, "NOT_FOUND", message, nil)
}

func errPersistence(op string, err error) *DomainError {
	return domainError(http.StatusBadGateway, "PERSISTENCE_ERROR", op+" failed", err.Error())
}

func errBlob(op string, err error) *DomainError {
	return domainError(http.StatusBadGateway, "BLOB_ERROR", op+" failed", err.Error())
}

func errConfig(message string) *DomainError {
	return domainError(http.StatusServiceUnavailable, "CONFIG_ERROR", message, nil)
}
