package models

// Идентификаторы инструментов; у каждого свой дневной счётчик.
const (
	ToolCompressor       = "compressor"
	ToolConverter        = "converter"
	ToolResizer          = "resizer"
	ToolMetadataStripper = "metadata-stripper"
	ToolPDFMerge         = "pdf-merge"
	ToolPDFSplit         = "pdf-split"
	ToolPDFCompress      = "pdf-compress"
)

// Tools перечень всех инструментов.
var Tools = []string{
	ToolCompressor,
	ToolConverter,
	ToolResizer,
	ToolMetadataStripper,
	ToolPDFMerge,
	ToolPDFSplit,
	ToolPDFCompress,
}

// IsKnownTool сообщает, существует ли инструмент с таким идентификатором.
func IsKnownTool(id string) bool {
	for _, t := range Tools {
		if t == id {
			return true
		}
	}
	return false
}
