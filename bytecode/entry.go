// Package bytecode implements a reader for the MLIR-style bytecode
// container format: a Section Splitter over five top-level sections
// (String, Dialect, AttrType, AttrTypeOffset, IR), lazy dialect and
// attribute/type tables, and an iterative IR Section Reader that
// reconstructs operations into a host ir.Block.
package bytecode

import (
	"github.com/anvilir/bytecode/config"
	"github.com/anvilir/bytecode/ir"
)

// IsBytecode reports whether buffer starts with the bytecode magic
// prefix, per spec.md §6.
func IsBytecode(buffer []byte) bool {
	return isBytecodeBytes(buffer)
}

// FileInfo reports the version and producer string read from a bytecode
// file's header, available to the caller once ReadBytecodeFile succeeds.
type FileInfo struct {
	Version  uint64
	Producer string
}

// ReadBytecodeFile parses buffer as a bytecode file and appends its
// top-level operations to targetBlock, before its terminator if it has
// one, else at the end. cfg may be nil, in which case config.Default() is
// used. identifier names the buffer (e.g. the path it was read from) and
// is attached to every diagnostic as the whole-buffer location (line 0,
// column 0), per spec.md §6, the same role buffer.getBufferIdentifier()
// plays in the original reader.
func ReadBytecodeFile(buffer []byte, identifier string, targetBlock *ir.Block, cfg *config.ParserConfig) (FileInfo, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	ctx := ir.NewContext()
	ctx.AllowUnregisteredDialects = cfg.AllowUnregisteredDialects

	return ReadBytecodeFileWithContext(buffer, identifier, targetBlock, ctx, cfg)
}

// ReadBytecodeFileWithContext is ReadBytecodeFile for a caller that
// already owns a host ir.Context (e.g. to share dialect registration
// across multiple reads).
func ReadBytecodeFileWithContext(buffer []byte, identifier string, targetBlock *ir.Block, ctx *ir.Context, cfg *config.ParserConfig) (FileInfo, error) {
	if identifier == "" {
		identifier = "<input>"
	}
	if !isBytecodeBytes(buffer) {
		return FileInfo{}, &readError{loc: &fileLoc{filename: identifier}, msg: "input buffer is not an MLIR bytecode file"}
	}

	r := &Reader{
		ctx:    ctx,
		cfg:    cfg,
		loc:    &fileLoc{filename: identifier},
		codecs: newCodecRegistry(),
	}
	r.fwdRefs = newForwardRefPool()

	err := r.read(buffer, targetBlock)
	return FileInfo{Version: r.version, Producer: r.producer}, err
}
