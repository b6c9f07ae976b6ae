package domain

// DesignModule describes a generator workspace: a themed fixed prompt template
// that user input is appended to.
type DesignModule struct {
	ID                string
	Title             string
	FixedPrompt       string
	DefaultUserPrompt string
}

// Modules is the built-in catalog of design modules.
var Modules = []DesignModule{
	{
		ID:                "urban-concept",
		Title:             "Urban Concept",
		FixedPrompt:       "futuristic urban architecture concept, ultra detailed, cinematic lighting, professional architectural visualization",
		DefaultUserPrompt: "a waterfront cultural center at dusk",
	},
	{
		ID:                "interior",
		Title:             "Interior Design",
		FixedPrompt:       "modern interior design rendering, photorealistic materials, soft natural light, wide angle",
		DefaultUserPrompt: "a minimalist living room with warm wood tones",
	},
	{
		ID:                "landscape",
		Title:             "Landscape Planning",
		FixedPrompt:       "landscape architecture masterplan rendering, aerial perspective, lush vegetation, realistic",
		DefaultUserPrompt: "a riverside park with winding paths",
	},
	{
		ID:                "facade",
		Title:             "Facade Renovation",
		FixedPrompt:       "building facade renovation concept, contemporary materials, street level view, high detail",
		DefaultUserPrompt: "a brick warehouse converted to offices",
	},
}

// ModuleByID returns the design module with the given id, or nil.
func ModuleByID(id string) *DesignModule {
	for i := range Modules {
		if Modules[i].ID == id {
			return &Modules[i]
		}
	}
	return nil
}
