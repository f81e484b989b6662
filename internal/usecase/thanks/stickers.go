package thanks

import "strings"

// Sticker изображение благодарности из каталога.
type Sticker struct {
	ID          string `json:"id"`
	Alt         string `json:"alt"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

var catalog = []Sticker{
	{ID: "image4", Alt: "Thankfully - Cute otter holding a heart with thankfully text", Description: `Otter holding heart with "thankfully" text`},
	{ID: "image5", Alt: "Thankfully - Relaxed otter holding a heart with thankfully text", Description: `Relaxed otter with heart and "thankfully" text`},
	{ID: "image6", Alt: "I'm otterly thankful for you - Happy otter jumping with music notes", Description: `Happy otter jumping with "i'm otterly thankful for you!"`},
	{ID: "image7", Alt: "Hugs and thanks - Two otters hugging each other", Description: `Two otters hugging with "hugs and thanks!"`},
	{ID: "image8", Alt: "I appreciate you - Otter holding a heart", Description: `Otter holding heart with "i appreciate you"`},
}

// Catalog выдаёт стикеры с адресами картинок относительно baseURL.
type Catalog struct {
	baseURL string
}

// NewCatalog создаёт каталог.
func NewCatalog(baseURL string) Catalog {
	return Catalog{baseURL: strings.TrimRight(baseURL, "/")}
}

// List возвращает все стикеры в фиксированном порядке.
func (c Catalog) List() []Sticker {
	out := make([]Sticker, 0, len(catalog))
	for _, s := range catalog {
		s.URL = c.url(s.ID)
		out = append(out, s)
	}
	return out
}

// Get ищет стикер по идентификатору.
func (c Catalog) Get(id string) (Sticker, bool) {
	for _, s := range catalog {
		if s.ID == id {
			s.URL = c.url(s.ID)
			return s, true
		}
	}
	return Sticker{}, false
}

func (c Catalog) url(id string) string {
	return c.baseURL + "/" + id + ".jpeg"
}
