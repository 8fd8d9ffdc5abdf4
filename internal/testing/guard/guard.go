package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("ESCOLA_TEST_MODE") == "" {
			_ = os.Setenv("ESCOLA_TEST_MODE", "1")
		}
	})
}
