package models

// Wallpaper is one entry of the showcase manifest.
type Wallpaper struct {
	Src  string `json:"src"`
	Alt  string `json:"alt"`
	Desc string `json:"desc"`
}
