// Package block finds delimited source blocks in a document and parses
// the attributes of their opening tags.
//
// Block syntax:
//
//	{{{ markyond output_file="score.png" output_fmt='png' }
//	\relative c'' { c d e f g }
//	{{{ /markyond }}}
//
// Brace runs are independent on each side of both delimiters and may have
// any length. Blanks around the keyword and attributes are ignored, except
// inside quoted values.
package block
