package main

import (
	"testing"

	"github.com/escolaweb/escolaweb/internal/app"
	_ "github.com/escolaweb/escolaweb/internal/testing/guard"
)

func TestMainSkipsStartupInTestMode(t *testing.T) {
	app.RefreshTestMode()
	if !app.InTestMode() {
		t.Fatal("test binary must run in test mode")
	}
	main()
}
