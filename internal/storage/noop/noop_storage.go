package noop

import (
	"context"

	"go.uber.org/zap"

	"medbrief/internal/port"
)

type noopStorage struct{}

// NewNoopStorage creates an ObjectStorage that discards uploads and logs their keys.
func NewNoopStorage() port.ObjectStorage {
	return &noopStorage{}
}

func (s *noopStorage) Upload(_ context.Context, input port.UploadInput) (*port.UploadOutput, error) {
	zap.L().Debug("noop.Upload: archive disabled, discarding upload",
		zap.String("key", input.Key), zap.Int64("size", input.Size))
	return &port.UploadOutput{Location: "noop://" + input.Key}, nil
}

func (s *noopStorage) Delete(_ context.Context, key string) error {
	zap.L().Debug("noop.Delete: archive disabled", zap.String("key", key))
	return nil
}
