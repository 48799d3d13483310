package metadata

type BitmapFontConfig struct {
	Name         string `toml:"name"`
	ResourceName string `toml:"resource"`
}

type FontGlyph struct {
	Codepoint int32
	X         uint16
	Y         uint16
	Width     uint16
	Height    uint16
	XOffset   int16
	YOffset   int16
	XAdvance  int16
	PageID    uint8
}

type FontKerning struct {
	Codepoint0 int32
	Codepoint1 int32
	Amount     int16
}

type FontData struct {
	Face       string
	Size       uint32
	LineHeight int32
	Baseline   int32
	AtlasSizeX int32
	AtlasSizeY int32
	Glyphs     map[int32]*FontGlyph
	Kernings   map[[2]int32]int16
}

type BitmapFontPage struct {
	ID int8
	/** @brief Image file of the page, relative to the font file. */
	File string
	/** @brief GUID the page is registered under in the texture path registry. */
	GUID string
	/** @brief Resolved path of the page image. */
	Path string
}

type BitmapFontResourceData struct {
	Data  *FontData
	Pages []*BitmapFontPage
}
