// Package render turns compositions into catalog images: it injects the
// bound assets into the template markup, rasterizes the result, applies
// the resize and sharpen steps, derives the optional zoom crop and
// writes everything into the catalog directory layout.
package render

import (
	"regexp"

	"github.com/prodkit/composer/pkg/composition"
	"github.com/prodkit/composer/pkg/config"
	"github.com/prodkit/composer/pkg/errors"
)

const (
	// DefaultResolution is the rasterization resolution in DPI.
	DefaultResolution = 72

	// DefaultAdaptiveWidth and DefaultAdaptiveHeight bound the output
	// box of the resize step.
	DefaultAdaptiveWidth  = 1500
	DefaultAdaptiveHeight = 1500

	// DefaultExtension is the output image format.
	DefaultExtension = "webp"

	// DefaultZoomARX and DefaultZoomARY describe the enforced zoom
	// aspect ratio as width:height.
	DefaultZoomARX = 18
	DefaultZoomARY = 9
)

// Options contains all configuration for rendering compositions.
type Options struct {
	// OutputDir is the catalog root the directory layout is written
	// under. Must be an existing directory.
	OutputDir string

	// Unsharp enables the fixed unsharp/sharpen filter pipeline after
	// resizing.
	Unsharp bool

	// OverrideImages re-renders outputs whose destination file already
	// exists. When false an existing destination is an idempotent skip.
	OverrideImages bool

	// AdaptiveResizeWidth and AdaptiveResizeHeight give the output box.
	// Either may be 0 to derive that dimension from the other,
	// preserving aspect ratio.
	AdaptiveResizeWidth  int
	AdaptiveResizeHeight int

	// Resolution is the rasterization DPI.
	Resolution int

	// Extension selects the output encoding: webp, png or jpg.
	Extension string

	// IncludePresentationItems and IncludeSecondaryItems mirror the
	// generator axes and select which assets take part in naming and
	// asset copies.
	IncludePresentationItems bool
	IncludeSecondaryItems    bool

	// Naming patterns per slot, anchored at the start of the code.
	PrimaryPattern      string
	SecondaryPattern    string
	PresentationPattern string

	// SecondaryNaming splices the background stem into output names.
	SecondaryNaming bool

	// ZoomARX/ZoomARY define the zoom aspect ratio enforced when
	// ForceZoomAR is set.
	ZoomARX     int
	ZoomARY     int
	ForceZoomAR bool

	// UploadToS3 enables the post-render bucket sync.
	UploadToS3 bool
	BucketName string

	primaryRe      *regexp.Regexp
	secondaryRe    *regexp.Regexp
	presentationRe *regexp.Regexp

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// FromSettings builds render options from the persisted configuration.
func FromSettings(p config.Provider) Options {
	s := p.Settings()
	return Options{
		OutputDir:                s.OutputPath,
		Unsharp:                  s.Unsharp,
		OverrideImages:           s.OverrideTargetFiles,
		AdaptiveResizeWidth:      s.AdaptiveResizeWidth,
		AdaptiveResizeHeight:     s.AdaptiveResizeHeight,
		Resolution:               s.ImageResolution,
		IncludePresentationItems: s.IncludePresentationItems,
		IncludeSecondaryItems:    s.IncludeSecondaryItems,
		PrimaryPattern:           s.MainProductCodePattern,
		SecondaryPattern:         s.SecondaryProductCodePattern,
		PresentationPattern:      s.PresentationCodePattern,
		SecondaryNaming:          s.SecondaryGeneration,
		ZoomARX:                  s.ZoomARX,
		ZoomARY:                  s.ZoomARY,
		ForceZoomAR:              s.ForceZoomAR,
		UploadToS3:               s.UploadToS3,
		BucketName:               s.BucketName,
	}
}

// ValidateAndSetDefaults checks required fields, compiles the naming
// patterns and applies defaults. This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}

	if o.Resolution == 0 {
		o.Resolution = DefaultResolution
	}
	if o.AdaptiveResizeWidth == 0 && o.AdaptiveResizeHeight == 0 {
		o.AdaptiveResizeWidth = DefaultAdaptiveWidth
		o.AdaptiveResizeHeight = DefaultAdaptiveHeight
	}
	if o.Extension == "" {
		o.Extension = DefaultExtension
	}
	if o.ZoomARX == 0 {
		o.ZoomARX = DefaultZoomARX
	}
	if o.ZoomARY == 0 {
		o.ZoomARY = DefaultZoomARY
	}
	switch o.Extension {
	case "webp", "png", "jpg", "jpeg":
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unsupported output extension %q", o.Extension)
	}

	var err error
	if o.primaryRe, err = compilePattern(o.PrimaryPattern); err != nil {
		return err
	}
	if o.secondaryRe, err = compilePattern(o.SecondaryPattern); err != nil {
		return err
	}
	if o.presentationRe, err = compilePattern(o.PresentationPattern); err != nil {
		return err
	}

	o.validated = true
	return nil
}

// NamePatterns returns the compiled naming configuration.
// ValidateAndSetDefaults must have succeeded first.
func (o *Options) NamePatterns() composition.NamePatterns {
	return composition.NamePatterns{
		Primary:           o.primaryRe,
		Secondary:         o.secondaryRe,
		Presentation:      o.presentationRe,
		Extension:         o.Extension,
		IncludeBackground: o.SecondaryNaming,
	}
}

func compilePattern(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPattern, err, "compiling naming pattern %q", pattern)
	}
	return re, nil
}
