package markyond

import (
	"errors"

	"github.com/raphigaziano/markyond/internal/assets"
	"github.com/raphigaziano/markyond/internal/block"
	"github.com/raphigaziano/markyond/internal/cache"
	"github.com/raphigaziano/markyond/internal/materialize"
	"github.com/raphigaziano/markyond/internal/pipeline"
	"github.com/raphigaziano/markyond/internal/render"
)

// Block errors. Each is caught at the block boundary: the block is replaced
// by an error marker and processing continues with the next block.
var (
	ErrMalformedAttribute = block.ErrMalformedAttribute
	ErrMissingOutputFile  = materialize.ErrMissingOutputFile
	ErrCompilerInvocation = render.ErrCompilerInvocation
	ErrCompilerFailure    = render.ErrCompilerFailure
	ErrMissingArtifact    = render.ErrMissingArtifact
	ErrRenderTimeout      = render.ErrTimeout
	ErrInvalidCacheKey    = cache.ErrInvalidKey
	ErrArtifactNotFound   = cache.ErrArtifactNotFound
)

// Converter configuration errors.
var (
	ErrUnknownHighlightStyle = pipeline.ErrUnknownStyle
	ErrStyleNotFound         = assets.ErrStyleNotFound
	ErrInvalidAssetPath      = assets.ErrInvalidBasePath
)

// Sentinel errors for library operations.
var (
	ErrUnsupportedFormat = errors.New("unsupported output format")
	ErrInvalidResolution = errors.New("invalid resolution")
	ErrEmptyDirectory    = errors.New("directory cannot be empty")
	ErrInvalidKeyword    = errors.New("invalid block keyword")
	ErrUnsupportedTarget = errors.New("unsupported conversion target")
	ErrHTMLConversion    = errors.New("HTML conversion failed")
	ErrPDFGeneration     = errors.New("PDF generation failed")
	ErrBrowserConnect    = errors.New("failed to connect to browser")
	ErrPageCreate        = errors.New("failed to create browser page")
	ErrPageLoad          = errors.New("failed to load page")
	ErrPoolClosed        = errors.New("converter pool is closed")
)

// CompileError carries the renderer's diagnostic output. Retrieve it with
// errors.As from a BlockResult error.
type CompileError = render.CompileError
