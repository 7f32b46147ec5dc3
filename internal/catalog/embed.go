package catalog

import (
	"embed"
	"io/fs"
)

// DefaultName es el catálogo que se usa cuando no se configura otro.
const DefaultName = "archetype"

//go:embed data/*.yaml
var embedded embed.FS

// Embedded expone los catálogos empaquetados en el binario.
func Embedded() fs.FS {
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		panic(err)
	}
	return sub
}
