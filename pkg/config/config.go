// Package config loads and persists the composer settings file. The
// file lives under the user's config directory and is created with
// defaults on first load.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/prodkit/composer/pkg/errors"
)

// EnvConfigDir overrides the directory holding the settings file.
const EnvConfigDir = "COMPOSER_CONFIG_DIR"

const fileName = "composer.toml"

// Settings holds every tunable the composer reads. Zero values are
// never used directly; Load fills absent keys from Default.
type Settings struct {
	MainProductCodePattern      string `toml:"main_product_code_pattern"`
	SecondaryProductCodePattern string `toml:"secondary_product_code_pattern"`
	PresentationCodePattern     string `toml:"presentation_code_pattern"`

	OutputPath            string `toml:"output_path"`
	MainProductsPath      string `toml:"main_products_path"`
	SecondaryProductsPath string `toml:"secondary_products_path"`
	PresentationsPath     string `toml:"presentations_path"`
	BackgroundsPath       string `toml:"backgrounds_path"`

	ImageResolution      int  `toml:"image_resolution"`
	AdaptiveResizeWidth  int  `toml:"adaptive_resize_width"`
	AdaptiveResizeHeight int  `toml:"adaptive_resize_height"`
	Unsharp              bool `toml:"unsharp"`
	OverrideTargetFiles  bool `toml:"override_target_files"`

	IncludePresentationItems bool `toml:"include_presentation_items"`
	IncludeSecondaryItems    bool `toml:"include_secondary_items"`
	SecondaryGeneration      bool `toml:"secondary_generation"`

	ZoomARX     int  `toml:"zoom_ar_x"`
	ZoomARY     int  `toml:"zoom_ar_y"`
	ForceZoomAR bool `toml:"force_zoom_ar"`

	// NumThreads is reserved for a parallel batch runner. The current
	// runner renders one composition at a time and ignores it.
	NumThreads int `toml:"num_threads"`

	UploadToS3  bool   `toml:"upload_to_s3"`
	BucketName  string `toml:"bucket_name"`
	S3AccessKey string `toml:"s3_access_key"`
	S3SecretKey string `toml:"s3_secret_key"`
	S3Region    string `toml:"s3_region"`
	S3Endpoint  string `toml:"s3_endpoint"`
}

// Provider is the read-only settings view handed to consumers that must
// not persist changes.
type Provider interface {
	Settings() Settings
}

// Default returns the settings written on first load.
func Default() Settings {
	return Settings{
		MainProductCodePattern:      `.*`,
		SecondaryProductCodePattern: `.*`,
		PresentationCodePattern:     `(\w+-)([\w-]+)`,

		OutputPath:            "output",
		MainProductsPath:      "main_products",
		SecondaryProductsPath: "secondary_products",
		PresentationsPath:     "presentations",
		BackgroundsPath:       "backgrounds",

		ImageResolution:      72,
		AdaptiveResizeWidth:  1500,
		AdaptiveResizeHeight: 1500,
		Unsharp:              true,
		OverrideTargetFiles:  true,

		IncludePresentationItems: true,
		IncludeSecondaryItems:    true,
		SecondaryGeneration:      false,

		ZoomARX:     18,
		ZoomARY:     9,
		ForceZoomAR: false,

		NumThreads: 5,

		UploadToS3: false,
	}
}

// Dir returns the directory holding the settings file.
func Dir() (string, error) {
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidPath, err, "resolving home directory")
	}
	return filepath.Join(home, ".composer"), nil
}

// Path returns the full path of the settings file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// Load reads the settings file, creating it with defaults first if it
// does not exist. Keys absent from an existing file keep their default
// value.
func Load() (*Settings, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the settings file at path, creating it with defaults
// first if it does not exist.
func LoadFrom(path string) (*Settings, error) {
	s := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := s.Save(path); err != nil {
			return nil, err
		}
		return &s, nil
	}

	if _, err := toml.DecodeFile(path, &s); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parsing settings file %s", path)
	}
	return &s, nil
}

// Save writes the settings to path, creating parent directories as
// needed.
func (s *Settings) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "creating config directory")
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "writing settings file %s", path)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(s); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encoding settings")
	}
	return nil
}

// Settings returns a copy, satisfying Provider.
func (s *Settings) Settings() Settings { return *s }
