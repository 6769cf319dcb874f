package handler

import (
	"os"
	"testing"

	"github.com/user/blog-analyzer/pkg/metrics"
)

func TestMain(m *testing.M) {
	metrics.Init()
	os.Exit(m.Run())
}
