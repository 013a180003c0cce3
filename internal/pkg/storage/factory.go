package storage

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

const (
	DriverS3    = "s3"
	DriverGCS   = "gcs"
	DriverMinIO = "minio"
)

var ErrUnknownDriver = errors.New("storage: unknown driver")

// FactoryOptions carries the settings of every backend; only the selected
// driver's block is read.
type FactoryOptions struct {
	S3    S3Options
	GCS   GCSOptions
	MinIO MinIOOptions
}

var openers = map[string]func(context.Context, FactoryOptions) (Storage, error){
	DriverS3:    func(ctx context.Context, o FactoryOptions) (Storage, error) { return asIface(NewS3(ctx, o.S3)) },
	DriverGCS:   func(ctx context.Context, o FactoryOptions) (Storage, error) { return asIface(NewGCS(ctx, o.GCS)) },
	DriverMinIO: func(_ context.Context, o FactoryOptions) (Storage, error) { return asIface(NewMinIO(o.MinIO)) },
}

// asIface keeps a typed nil adapter from leaking out as a non nil interface.
func asIface[T Storage](v T, err error) (Storage, error) {
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Drivers lists the accepted driver names in sorted order.
func Drivers() []string {
	return slices.Sorted(maps.Keys(openers))
}

// NewFromDriver opens the backend named by driver (case and surrounding
// blanks ignored).
func NewFromDriver(ctx context.Context, driver string, opts FactoryOptions) (Storage, error) {
	open, ok := openers[strings.ToLower(strings.TrimSpace(driver))]
	if !ok {
		return nil, fmt.Errorf("%w %q, want one of %s", ErrUnknownDriver, driver, strings.Join(Drivers(), ", "))
	}
	return open(ctx, opts)
}
