package db

import (
	"io"
	"log"
)

// CloseClient closes a database client and logs the outcome.
func CloseClient(name string, c io.Closer) {
	if c == nil {
		log.Printf("[INFO][DB] `%s` Nothing to Close", name)
		return
	}
	if err := c.Close(); err != nil {
		log.Printf("[WARN][DB] Failed to Close `%s`: %v", name, err)
	} else {
		log.Printf("[INFO][DB] `%s` Closed", name)
	}
}
