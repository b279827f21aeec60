package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type valorPrueba struct {
	Nombre string `json:"nombre"`
	Edad   int    `json:"edad"`
}

func TestInMemoryCache_SetGet(t *testing.T) {
	c := NewInMemoryCache(time.Minute, time.Minute)
	defer c.Stop()
	ctx := context.Background()

	original := valorPrueba{Nombre: "Ana", Edad: 30}
	assert.NoError(t, c.Set(ctx, "clave", original, 60))

	var recuperado valorPrueba
	ok, err := c.Get(ctx, "clave", &recuperado)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, original, recuperado)
}

func TestInMemoryCache_Miss(t *testing.T) {
	c := NewInMemoryCache(time.Minute, time.Minute)
	defer c.Stop()

	var dest valorPrueba
	ok, err := c.Get(context.Background(), "no-existe", &dest)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestInMemoryCache_Delete(t *testing.T) {
	c := NewInMemoryCache(time.Minute, time.Minute)
	defer c.Stop()
	ctx := context.Background()

	assert.NoError(t, c.Set(ctx, "clave", valorPrueba{Nombre: "Ana"}, 60))
	assert.NoError(t, c.Delete(ctx, "clave"))

	var dest valorPrueba
	ok, _ := c.Get(ctx, "clave", &dest)
	assert.False(t, ok)
}

func TestInMemoryCache_Expiry(t *testing.T) {
	c := NewInMemoryCache(time.Minute, time.Minute)
	defer c.Stop()
	ctx := context.Background()

	assert.NoError(t, c.Set(ctx, "efimera", valorPrueba{Nombre: "Ana"}, 1))

	// Antes de expirar: hit
	var dest valorPrueba
	ok, _ := c.Get(ctx, "efimera", &dest)
	assert.True(t, ok)

	// Pasado el TTL se trata como miss aunque la limpieza no haya corrido
	time.Sleep(1100 * time.Millisecond)
	ok, _ = c.Get(ctx, "efimera", &dest)
	assert.False(t, ok)
}
