package gopher

// ItemType is a Gopher item type. The zero value is ItemUnknown.
//
// Adding a type means adding a constant, a row in itemCodes and a case in
// the crawler's handler switch.
type ItemType uint8

const (
	// ItemUnknown is used for codes that are not recognized.
	// It is never produced by a well-formed menu line.
	ItemUnknown ItemType = iota
	// ItemTextFile is a plain text document ('0').
	ItemTextFile
	// ItemSubmenu is a directory listing ('1').
	ItemSubmenu
	// ItemNameserver is a CCSO phone-book server ('2').
	ItemNameserver
	// ItemError is an error line sent in place of content ('3').
	ItemError
	// ItemBinHex is a BinHex-encoded Macintosh file ('4').
	ItemBinHex
	// ItemDOS is a DOS binary archive ('5').
	ItemDOS
	// ItemUuencoded is a uuencoded file ('6').
	ItemUuencoded
	// ItemSearch is a full-text search server ('7').
	ItemSearch
	// ItemTelnet is a Telnet session ('8').
	ItemTelnet
	// ItemBinary is a generic binary file ('9').
	ItemBinary
	// ItemMirror is a redundant mirror of the previous server ('+').
	ItemMirror
	// ItemGIF is a GIF image ('g').
	ItemGIF
	// ItemImage is an image file of unspecified format ('I').
	ItemImage
	// ItemTelnet3270 is a tn3270 session ('T').
	ItemTelnet3270
	// ItemBitmap is a bitmap image (':').
	ItemBitmap
	// ItemMovie is a movie file (';').
	ItemMovie
	// ItemSound is a sound file ('<').
	ItemSound
	// ItemDoc is a word-processor document ('d').
	ItemDoc
	// ItemHTML is an HTML file ('h').
	ItemHTML
	// ItemInfo is an informational display line without a link ('i').
	ItemInfo
	// ItemPNG is a PNG image ('p').
	ItemPNG
	// ItemRTF is a rich text document ('r').
	ItemRTF
	// ItemWAV is a WAV sound file ('s').
	ItemWAV
	// ItemPDF is a PDF document ('P').
	ItemPDF
	// ItemXML is an XML document ('X').
	ItemXML
)

// unknownChar is what ItemUnknown serializes to. '?' is not a valid code,
// so an unknown type never round-trips into a real one.
const unknownChar = '?'

// itemCodes pairs every known type with its wire code and display name.
var itemCodes = [...]struct {
	typ  ItemType
	code byte
	name string
}{
	{ItemTextFile, '0', "text"},
	{ItemSubmenu, '1', "menu"},
	{ItemNameserver, '2', "nameserver"},
	{ItemError, '3', "error"},
	{ItemBinHex, '4', "binhex"},
	{ItemDOS, '5', "dos"},
	{ItemUuencoded, '6', "uuencoded"},
	{ItemSearch, '7', "search"},
	{ItemTelnet, '8', "telnet"},
	{ItemBinary, '9', "binary"},
	{ItemMirror, '+', "mirror"},
	{ItemGIF, 'g', "gif"},
	{ItemImage, 'I', "image"},
	{ItemTelnet3270, 'T', "tn3270"},
	{ItemBitmap, ':', "bitmap"},
	{ItemMovie, ';', "movie"},
	{ItemSound, '<', "sound"},
	{ItemDoc, 'd', "doc"},
	{ItemHTML, 'h', "html"},
	{ItemInfo, 'i', "info"},
	{ItemPNG, 'p', "png"},
	{ItemRTF, 'r', "rtf"},
	{ItemWAV, 's', "wav"},
	{ItemPDF, 'P', "pdf"},
	{ItemXML, 'X', "xml"},
}

var (
	typeByCode [256]ItemType
	codeByType [len(itemCodes) + 1]byte
	nameByType [len(itemCodes) + 1]string
)

func init() {
	codeByType[ItemUnknown] = unknownChar
	nameByType[ItemUnknown] = "unknown"
	for _, c := range itemCodes {
		typeByCode[c.code] = c.typ
		codeByType[c.typ] = c.code
		nameByType[c.typ] = c.name
	}
}

// ItemTypeFromChar returns the item type for a wire code.
// Unrecognized codes map to ItemUnknown.
func ItemTypeFromChar(c byte) ItemType {
	return typeByCode[c]
}

// Char returns the wire code of the item type.
func (t ItemType) Char() byte {
	if int(t) >= len(codeByType) {
		return unknownChar
	}
	return codeByType[t]
}

// String returns the wire code as a one-character string.
// This is the form stored in the pages table.
func (t ItemType) String() string {
	return string(rune(t.Char()))
}

// Name returns a human-readable name such as "menu" or "text".
func (t ItemType) Name() string {
	if int(t) >= len(nameByType) {
		return nameByType[ItemUnknown]
	}
	return nameByType[t]
}

// IsKnown reports whether t is a recognized item type.
func (t ItemType) IsKnown() bool {
	return t != ItemUnknown && int(t) < len(codeByType)
}
