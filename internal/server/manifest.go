package server

// Manifest 是插件清单（GET /manifest.json）。
type Manifest struct {
	ID          string   `json:"id"`
	Version     string   `json:"version"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Resources   []string `json:"resources"`
	Types       []string `json:"types"`
	IDPrefixes  []string `json:"idPrefixes"`
	Catalogs    []any    `json:"catalogs"`
}

// DefaultManifest 只声明 movie 类型的 stream 资源。
func DefaultManifest() Manifest {
	return Manifest{
		ID:          "org.desiremovies.multistream",
		Version:     "1.0.13",
		Name:        "DesireMovies Multi-Quality",
		Description: `IMDb scrape, "&"→"and", captures 4K/2160p, quality scoring, skips non-GD links`,
		Resources:   []string{"stream"},
		Types:       []string{"movie"},
		IDPrefixes:  []string{"tt"},
		Catalogs:    []any{},
	}
}
