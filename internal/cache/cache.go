// Package cache holds short-lived copies of source responses so repeated runs
// inside the TTL do not hit the origin.
package cache

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"
)

// ResponseCache stores raw response bodies keyed by request URL. A miss and a
// backend failure both report false from Get.
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, body []byte) error
}

func buildKey(url string) string {
	hash := sha256.Sum256([]byte(strings.TrimSpace(url)))
	return fmt.Sprintf("jobbeacon:src:%x", hash[:8])
}
