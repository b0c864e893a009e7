package journal

import "github.com/google/uuid"

// IDGenerator produces journal entry ids.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator issues UUIDv7 ids, which sort by creation time. The
// zero value is ready to use from any goroutine.
type UUIDv7Generator struct{}

func (UUIDv7Generator) Generate() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Only fails when the random source does.
		panic(err)
	}
	return id.String()
}
