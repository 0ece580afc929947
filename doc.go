// Package markyond renders LilyPond music blocks embedded in Markdown (or
// any text) documents and replaces each block with a reference to the
// rendered image or PDF.
//
// # Blocks
//
// A block is delimited by an opening and a closing tag made of curly
// braces around the keyword, "markyond" by default:
//
//	{{markyond output_file="scale.png" output_fmt="png"}}
//	\relative c' { c d e f g a b c }
//	{{/markyond}}
//
// Attributes override the document-wide Config for that block only:
// output_file (required), output_dir, output_fmt (png, svg or pdf),
// base_url, cache_dir, link_name and resolution.
//
// # Processing
//
// A Processor replaces every block in document order:
//
//	p, err := markyond.NewProcessor(markyond.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	res, err := p.Process(ctx, doc)
//	if err != nil {
//	    log.Fatal(err) // context cancelled
//	}
//	fmt.Print(res.Text)
//
// Each block body is fingerprinted together with the attributes that change
// the rendering. A cached artifact with the same fingerprint is reused,
// otherwise lilypond compiles the body. The artifact is then copied to
// output_dir/output_file and the block becomes
//
//	<img src="BASE_URLOUTPUT_FILE"/>             (png, svg)
//	<a href="BASE_URLOUTPUT_FILE">LINK_NAME</a>  (pdf)
//
// A failing block never stops the document: it is replaced by a visible
// <span class="markyond-error"> marker and reported in Result.Blocks.
//
// # Conversion
//
// A Converter goes one step further and turns the processed Markdown into
// a standalone HTML page (goldmark) or a PDF (headless Chrome via go-rod):
//
//	conv, err := markyond.NewConverter(markyond.WithProcessor(p))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer conv.Close()
//
//	out, err := conv.Convert(ctx, markyond.Input{Markdown: doc, To: markyond.ToPDF})
//
// ConverterPool shares converters, and their browsers, between workers.
package markyond
