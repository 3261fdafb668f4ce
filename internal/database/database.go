package database

import (
	"time"

	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("key not found")

type Database interface {
	Get(key string) (data string, err error)
	Set(key string, data string, expiration time.Duration) (err error)
	Delete(key string) (err error)
}
