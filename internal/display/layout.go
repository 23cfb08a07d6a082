package display

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// layoutFile is the on-disk form of a catalog. Screens may omit the usable
// area, depth and pixel ratio; missing values are filled from the full
// rectangle.
type layoutFile struct {
	Current      *int         `yaml:"current"`
	CurrentLabel string       `yaml:"current_label"`
	Screens      []Descriptor `yaml:"screens"`
}

// LoadCatalogFile reads a YAML display layout from path.
func LoadCatalogFile(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("failed to read layout %s: %w", path, err)
	}
	catalog, err := ParseCatalog(data)
	if err != nil {
		return Catalog{}, fmt.Errorf("%s: %w", path, err)
	}
	return catalog, nil
}

// ParseCatalog decodes a YAML display layout.
func ParseCatalog(data []byte) (Catalog, error) {
	var lf layoutFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&lf); err != nil && !errors.Is(err, io.EOF) {
		return Catalog{}, fmt.Errorf("invalid layout: %w", err)
	}

	screens := make([]Descriptor, len(lf.Screens))
	for i, s := range lf.Screens {
		screens[i] = FillDefaults(s, i)
	}
	if len(screens) > 1 {
		for i := range screens {
			screens[i].IsExtended = true
		}
	}

	current := 0
	switch {
	case lf.CurrentLabel != "" && lf.Current != nil:
		return Catalog{}, fmt.Errorf("current and current_label are mutually exclusive")
	case lf.CurrentLabel != "":
		found := false
		for i, s := range screens {
			if s.Label == lf.CurrentLabel {
				current = i
				found = true
				break
			}
		}
		if !found {
			return Catalog{}, fmt.Errorf("current_label %q does not match any screen", lf.CurrentLabel)
		}
	case lf.Current != nil:
		current = *lf.Current
	default:
		for i, s := range screens {
			if s.IsPrimary {
				current = i
				break
			}
		}
	}

	catalog := Catalog{Screens: screens, Current: current}
	if err := catalog.Validate(); err != nil {
		return Catalog{}, err
	}
	return catalog, nil
}

// FillDefaults completes a partially specified descriptor. An empty usable
// area becomes the full rectangle, depth defaults to 24 bits, pixel ratio to 1
// and orientation follows the aspect ratio. Unlabeled screens are named after
// their index.
func FillDefaults(s Descriptor, index int) Descriptor {
	if s.AvailWidth == 0 && s.AvailHeight == 0 {
		s.AvailLeft = s.Left
		s.AvailTop = s.Top
		s.AvailWidth = s.Width
		s.AvailHeight = s.Height
	}
	if s.ColorDepth == 0 {
		s.ColorDepth = 24
	}
	if s.PixelDepth == 0 {
		s.PixelDepth = s.ColorDepth
	}
	if s.DevicePixelRatio == 0 {
		s.DevicePixelRatio = 1.0
	}
	if s.Orientation.Type == "" {
		if s.Width < s.Height {
			s.Orientation = Orientation{Angle: 90, Type: PortraitPrimary}
		} else {
			s.Orientation = DefaultOrientation
		}
	}
	if s.Label == "" {
		s.Label = fmt.Sprintf("Screen%d", index)
	}
	return s
}
