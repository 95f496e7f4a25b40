package engine

import (
	"context"
	"fmt"
)

// RenderFunc renders a URL in a real browser. It is injected from main so
// the engine package never depends on the browser package.
type RenderFunc func(ctx context.Context, req *FetchRequest) (*FetchResult, error)

// RodEngine is the browser-backed engine used for websites that only show
// their content after JavaScript runs.
type RodEngine struct {
	render RenderFunc
}

// NewRodEngine creates a RodEngine around render.
func NewRodEngine(render RenderFunc) *RodEngine {
	return &RodEngine{render: render}
}

func (e *RodEngine) Name() string { return "browser" }

func (e *RodEngine) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	if e.render == nil {
		return nil, fmt.Errorf("%s: render func not configured", e.Name())
	}

	result, err := e.render(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.Name(), err)
	}
	result.EngineName = e.Name()
	return result, nil
}
