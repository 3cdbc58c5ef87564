package config

// AboutLogo is the logo sequence of the about section: 151 square frames
// scrubbed while the section passes through the viewport.
func AboutLogo() Sequence {
	return Sequence{
		Name:       "about",
		FrameCount: 151,
		StartIndex: 0,
		BasePath:   "assets/logosequence/",
		Prefix:     "logo_",
		Extension:  ".png",
		Fit:        FitSquare,
		Progress:   ProgressSection,
		CanvasID:   "about-sequence-canvas",
		SectionID:  "about",
	}
}

// Hero is the full-page sequence: widescreen frames letterboxed into their
// canvas and scrubbed over the whole document scroll range.
func Hero() Sequence {
	return Sequence{
		Name:          "hero",
		FrameCount:    120,
		StartIndex:    1,
		BasePath:      "assets/herosequence/",
		Prefix:        "hero_",
		Extension:     ".jpg",
		Fit:           FitLetterbox,
		Progress:      ProgressDocument,
		CanvasID:      "hero-sequence-canvas",
		DefaultAspect: widescreenAspect,
	}
}

// Preset returns a built-in sequence by name.
func Preset(name string) (Sequence, bool) {
	switch name {
	case "about", "logo":
		return AboutLogo(), true
	case "hero":
		return Hero(), true
	}
	return Sequence{}, false
}

// DefaultPage lays out both built-in sequences on a 1280x720 viewport.
func DefaultPage() Page {
	return Page{
		ViewportWidth:    1280,
		ViewportHeight:   720,
		DocumentHeight:   4320,
		DevicePixelRatio: 1,
		Canvases: []CanvasElement{
			{ID: "hero-sequence-canvas", Width: 1280, ParentWidth: 1280},
			{ID: "about-sequence-canvas", Width: 560, ParentWidth: 1200},
		},
		Sections: []SectionElement{
			{ID: "home", Top: 0, Height: 720},
			{ID: "about", Top: 1440, Height: 1080},
			{ID: "products", Top: 2520, Height: 1080},
			{ID: "contact", Top: 3600, Height: 720},
		},
	}
}
