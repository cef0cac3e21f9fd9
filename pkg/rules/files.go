package rules

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"strconv"
	"strings"

	"github.com/goliatone/go-formguard/pkg/form"
)

// ImageExtensions are the extensions accepted by the image method.
var ImageExtensions = []string{"jpg", "png", "gif", "bmp", "svg", "jpeg"}

func files(fc FieldContext) []form.File {
	c := fc.Control()
	if c == nil || !c.IsFile() {
		return nil
	}
	return c.Files
}

func file(fc FieldContext, _ any, _ Params) Result {
	return Bool(len(files(fc)) > 0)
}

func mimes(fc FieldContext, _ any, params Params) Result {
	return checkExtensions(fc, lowerAll(params.Strings()))
}

func imageMethod(fc FieldContext, _ any, _ Params) Result {
	return checkExtensions(fc, ImageExtensions)
}

func checkExtensions(fc FieldContext, allowed []string) Result {
	list := files(fc)
	if len(list) == 0 {
		return Fail
	}
	for _, f := range list {
		if !containsString(allowed, f.Extension()) {
			return Fail
		}
	}
	return Pass
}

// mimetypes accepts exact types and "type/*" wildcards.
func mimetypes(fc FieldContext, _ any, params Params) Result {
	list := files(fc)
	if len(list) == 0 {
		return Fail
	}
	allowed := lowerAll(params.Strings())
	for _, f := range list {
		if !mimeAllowed(strings.ToLower(f.MIME), allowed) {
			return Fail
		}
	}
	return Pass
}

func mimeAllowed(mime string, allowed []string) bool {
	for _, a := range allowed {
		if a == mime {
			return true
		}
		if strings.HasSuffix(a, "/*") && strings.HasPrefix(mime, strings.TrimSuffix(a, "*")) {
			return true
		}
	}
	return false
}

func lowerAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(strings.TrimSpace(v))
	}
	return out
}

// Dimensions holds the constraints of the dimensions method.
type Dimensions struct {
	MinWidth, MaxWidth, MinHeight, MaxHeight, Width, Height int
	Ratio                                                   float64
}

// ParseDimensions reads "min_width=100" style parameters.
func ParseDimensions(params Params) (Dimensions, error) {
	var d Dimensions
	for _, raw := range params.Strings() {
		key, value, ok := strings.Cut(raw, "=")
		if !ok {
			return d, fmt.Errorf("rules: dimensions parameter %q", raw)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "ratio" {
			r, err := parseRatio(value)
			if err != nil {
				return d, err
			}
			d.Ratio = r
			continue
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			return d, fmt.Errorf("rules: dimensions %s: %w", key, err)
		}
		switch key {
		case "min_width":
			d.MinWidth = n
		case "max_width":
			d.MaxWidth = n
		case "min_height":
			d.MinHeight = n
		case "max_height":
			d.MaxHeight = n
		case "width":
			d.Width = n
		case "height":
			d.Height = n
		default:
			return d, fmt.Errorf("rules: dimensions constraint %q", key)
		}
	}
	return d, nil
}

func parseRatio(value string) (float64, error) {
	if num, den, ok := strings.Cut(value, "/"); ok {
		n, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
		if err != nil {
			return 0, err
		}
		d, err := strconv.ParseFloat(strings.TrimSpace(den), 64)
		if err != nil || d == 0 {
			return 0, errors.New("rules: dimensions ratio denominator")
		}
		return n / d, nil
	}
	return strconv.ParseFloat(value, 64)
}

// Allows reports whether an image of w by h satisfies the constraints.
func (d Dimensions) Allows(w, h int) bool {
	switch {
	case d.MinWidth > 0 && w < d.MinWidth,
		d.MaxWidth > 0 && w > d.MaxWidth,
		d.MinHeight > 0 && h < d.MinHeight,
		d.MaxHeight > 0 && h > d.MaxHeight,
		d.Width > 0 && w != d.Width,
		d.Height > 0 && h != d.Height:
		return false
	}
	if d.Ratio > 0 && h > 0 {
		if math.Abs(d.Ratio-float64(w)/float64(h)) > 1.0/(math.Max(float64(w), float64(h))+1) {
			return false
		}
	}
	return true
}

// dimensions decodes the first picked image in the background.
func dimensions(fc FieldContext, _ any, params Params) (Task, error) {
	constraints, err := ParseDimensions(params)
	if err != nil {
		return nil, err
	}
	list := files(fc)
	var picked form.File
	if len(list) > 0 {
		picked = list[0]
	}
	return func(ctx context.Context) Verdict {
		if picked.Open == nil {
			return Verdict{}
		}
		rc, err := picked.Open()
		if err != nil {
			return Verdict{}
		}
		defer rc.Close()
		if ctx.Err() != nil {
			return Verdict{}
		}
		cfg, _, err := image.DecodeConfig(rc)
		if err != nil {
			return Verdict{}
		}
		return Verdict{Valid: constraints.Allows(cfg.Width, cfg.Height)}
	}, nil
}
