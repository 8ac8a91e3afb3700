package service

import (
	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type ValidationService[K any, V any] struct {
	validator *validator.Validate
}

func NewValidationService[K any, V any]() *ValidationService[K, V] {
	return &ValidationService[K, V]{
		validator: validator.New(),
	}
}

func (v *ValidationService[K, V]) Validate(entity K) error {
	return v.validator.Struct(entity)
}

// ValidateUpdateRequest decodes a loosely typed payload into the update
// schema V and validates it. Keys unknown to V are dropped.
func (v *ValidationService[K, V]) ValidateUpdateRequest(payload map[string]interface{}) (V, error) {
	var updateSchema V

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return updateSchema, err
	}
	if err = json.Unmarshal(jsonData, &updateSchema); err != nil {
		return updateSchema, err
	}
	if err = v.validator.Struct(updateSchema); err != nil {
		return updateSchema, err
	}

	return updateSchema, nil
}
