//go:build js && wasm

package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image/png"
	"syscall/js"

	"github.com/MeKo-Tech/landscape/internal/encode"
	"github.com/MeKo-Tech/landscape/internal/render"
	"github.com/MeKo-Tech/landscape/internal/scene"
)

// generate renders the scene JSON in args[0] and returns {dataUrl} or
// {error}. An optional args[1] selects "png" or "webp".
func generate(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return errorResult("missing scene JSON")
	}

	cfg, err := scene.Decode([]byte(args[0].String()))
	if err != nil {
		return errorResult(err.Error())
	}
	n, err := scene.Normalize(cfg)
	if err != nil {
		return errorResult(err.Error())
	}

	format := encode.PNG
	if len(args) > 1 && args[1].Type() == js.TypeString {
		if format, err = encode.ParseFormat(args[1].String()); err != nil {
			return errorResult(err.Error())
		}
	}

	img, err := render.Compose(context.Background(), n, nil)
	if err != nil {
		return errorResult(err.Error())
	}
	data, err := encode.New(format, png.BestSpeed).Bytes(img)
	if err != nil {
		return errorResult(fmt.Sprintf("failed to encode: %v", err))
	}

	return map[string]any{
		"dataUrl": "data:" + format.ContentType() + ";base64," + base64.StdEncoding.EncodeToString(data),
		"width":   n.Width,
		"height":  n.Height,
	}
}

// defaultScene returns the built-in scene as JSON.
func defaultScene(this js.Value, args []js.Value) any {
	data, err := json.Marshal(scene.Default())
	if err != nil {
		return errorResult(err.Error())
	}
	return string(data)
}

func errorResult(msg string) map[string]any {
	return map[string]any{"error": msg}
}

func main() {
	c := make(chan struct{})

	js.Global().Set("landscapeGenerate", js.FuncOf(generate))
	js.Global().Set("landscapeDefaultScene", js.FuncOf(defaultScene))

	fmt.Println("Landscape WASM module loaded")
	<-c
}
