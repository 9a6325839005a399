package classify

// signature is a byte pattern expected at a fixed offset from the start of
// a file. Audio signatures only count when Music is selected.
type signature struct {
	name   string
	magic  []byte
	offset int
	audio  bool
}

var signatures = []signature{
	// Images.
	{name: "png", magic: []byte("\x89PNG\r\n\x1a\n")},
	{name: "jpeg", magic: []byte{0xFF, 0xD8, 0xFF}},
	{name: "gif87a", magic: []byte("GIF87a")},
	{name: "gif89a", magic: []byte("GIF89a")},
	{name: "webp", magic: []byte("WEBP"), offset: 8},
	{name: "tiff-le", magic: []byte{'I', 'I', 0x2A, 0x00}},
	{name: "tiff-be", magic: []byte{'M', 'M', 0x00, 0x2A}},
	{name: "jpeg2000", magic: []byte{0x00, 0x00, 0x00, 0x0C, 'j', 'P', ' ', ' '}},

	// ISO base media (mp4, mov, m4v, 3gp, heic, avif).
	{name: "isobmff", magic: []byte("ftyp"), offset: 4},

	// Video and containers.
	{name: "matroska", magic: []byte{0x1A, 0x45, 0xDF, 0xA3}},
	{name: "avi", magic: []byte("AVI "), offset: 8},
	{name: "mpeg-ps", magic: []byte{0x00, 0x00, 0x01, 0xBA}},
	{name: "mpeg-video", magic: []byte{0x00, 0x00, 0x01, 0xB3}},
	{name: "flv", magic: []byte("FLV\x01")},
	{name: "asf", magic: []byte{0x30, 0x26, 0xB2, 0x75, 0x8E, 0x66, 0xCF, 0x11}},

	// Audio.
	{name: "ogg", magic: []byte("OggS"), audio: true},
	{name: "id3", magic: []byte("ID3"), audio: true},
	{name: "flac", magic: []byte("fLaC"), audio: true},
}
