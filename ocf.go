package avro

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"io"
	"os"
	"reflect"
)

var ocfMagic = []byte("Obj\x01")

const (
	metaSchemaKey = "avro.schema"
	metaCodecKey  = "avro.codec"

	// defaultBlockSize is the soft cap, in encoded bytes, that triggers an
	// automatic block flush from Write.
	defaultBlockSize = 64 * 1024
)

var headerMapSchema = &MapSchema{Values: new(BytesSchema)}

// DataFileWriter appends Avro object container file blocks to an
// underlying writer, compressing each block with the named codec.
type DataFileWriter struct {
	w           io.Writer
	schema      Schema
	codec       blockCodec
	sync        [16]byte
	datumWriter DatumWriter
	blockSize   int
	logger      Logger

	pending      bytes.Buffer
	pendingCount int64
	closed       bool
}

// DataFileWriterOption configures a DataFileWriter at construction time.
type DataFileWriterOption func(*DataFileWriter)

// WithBlockSize overrides the default ~64KiB soft block-size cap.
func WithBlockSize(n int) DataFileWriterOption {
	return func(w *DataFileWriter) { w.blockSize = n }
}

// WithWriterLogger attaches a diagnostics logger to the writer.
func WithWriterLogger(l Logger) DataFileWriterOption {
	return func(w *DataFileWriter) { w.logger = l }
}

// NewDataFileWriter opens a new object container stream over w, writing the
// Obj\x01 header (schema + codec metadata and a random sync marker) before
// returning.
func NewDataFileWriter(w io.Writer, schema Schema, codecName string, opts ...DataFileWriterOption) (*DataFileWriter, error) {
	codec, err := lookupCodec(codecName)
	if err != nil {
		return nil, err
	}
	dfw := &DataFileWriter{
		w:           w,
		schema:      schema,
		codec:       codec,
		datumWriter: NewGenericDatumWriter(),
		blockSize:   defaultBlockSize,
		logger:      NewDiscardLogger(),
	}
	dfw.datumWriter.SetSchema(schema)
	if _, err := rand.Read(dfw.sync[:]); err != nil {
		return nil, fmt.Errorf("generating sync marker: %w", err)
	}
	for _, opt := range opts {
		opt(dfw)
	}

	schemaJSON, err := SchemaToJSON(schema)
	if err != nil {
		return nil, fmt.Errorf("marshaling header schema: %w", err)
	}
	meta := map[string]interface{}{
		metaSchemaKey: []byte(schemaJSON),
		metaCodecKey:  []byte(codecName),
	}

	if _, err := w.Write(ocfMagic); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := NewBinaryEncoder(&buf)
	if err := encodeMap(headerMapSchema, reflect.ValueOf(meta), enc); err != nil {
		return nil, fmt.Errorf("encoding header metadata: %w", err)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return nil, err
	}
	if _, err := w.Write(dfw.sync[:]); err != nil {
		return nil, err
	}
	return dfw, nil
}

// Write appends one record to the writer's pending block, auto-flushing
// once the pending block's encoded size reaches the soft block-size cap.
func (dfw *DataFileWriter) Write(record interface{}) error {
	if dfw.closed {
		return ErrWriterClosed
	}
	enc := NewBinaryEncoder(&dfw.pending)
	if err := dfw.datumWriter.Write(record, enc); err != nil {
		return err
	}
	dfw.pendingCount++
	if dfw.pending.Len() >= dfw.blockSize {
		return dfw.Flush()
	}
	return nil
}

// Flush compresses and writes the current pending block, if non-empty.
func (dfw *DataFileWriter) Flush() error {
	if dfw.pendingCount == 0 {
		return nil
	}
	compressed, err := dfw.codec.Encode(dfw.pending.Bytes())
	if err != nil {
		return fmt.Errorf("compressing block: %w", err)
	}
	var header bytes.Buffer
	henc := NewBinaryEncoder(&header)
	henc.WriteLong(dfw.pendingCount)
	henc.WriteLong(int64(len(compressed)))
	if _, err := dfw.w.Write(header.Bytes()); err != nil {
		return err
	}
	if _, err := dfw.w.Write(compressed); err != nil {
		return err
	}
	if _, err := dfw.w.Write(dfw.sync[:]); err != nil {
		return err
	}
	dfw.logger.Debug("flushed object container block", "rows", dfw.pendingCount, "bytes", len(compressed))
	dfw.pending.Reset()
	dfw.pendingCount = 0
	return nil
}

// Close flushes any pending block and marks the writer closed.
func (dfw *DataFileWriter) Close() error {
	if dfw.closed {
		return nil
	}
	err := dfw.Flush()
	dfw.closed = true
	return err
}

// DataFileReader reads records back out of an object container file,
// resolving each block's writer schema through datumReader.
type DataFileReader struct {
	data        []byte
	pos         int
	schema      Schema
	codec       blockCodec
	sync        [16]byte
	datumReader DatumReader
	logger      Logger

	block          *BinaryDecoder
	blockRemaining int64

	// index maps block start offsets (in data) to their row count, built
	// lazily by buildIndex to support random access via Seek.
	index []blockIndexEntry
}

type blockIndexEntry struct {
	offset int
	rows   int64
}

// NewDataFileReader opens the object container file at path.
func NewDataFileReader(path string, datumReader DatumReader) (*DataFileReader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return NewDataFileReaderBytes(data, datumReader)
}

// NewDataFileReaderBytes opens an object container file already loaded into
// memory, useful for tests and for streams read from non-file sources.
func NewDataFileReaderBytes(data []byte, datumReader DatumReader) (*DataFileReader, error) {
	dfr := &DataFileReader{data: data, datumReader: datumReader, logger: NewDiscardLogger()}
	if err := dfr.readHeader(); err != nil {
		return nil, err
	}
	return dfr, nil
}

func (dfr *DataFileReader) readHeader() error {
	if len(dfr.data) < len(ocfMagic) || !bytes.Equal(dfr.data[:len(ocfMagic)], ocfMagic) {
		return ErrBadMagic
	}
	dfr.pos = len(ocfMagic)

	dec := NewBinaryDecoder(dfr.data)
	dec.pos = dfr.pos
	meta, err := decodeValue(headerMapSchema, dec)
	if err != nil {
		return fmt.Errorf("decoding header metadata: %w", err)
	}
	metaMap := meta.(map[string]interface{})

	schemaBytes, ok := metaMap[metaSchemaKey].([]byte)
	if !ok {
		return fmt.Errorf("%w: header missing %s", ErrInvalidSchema, metaSchemaKey)
	}
	schema, err := ParseSchema(string(schemaBytes))
	if err != nil {
		return fmt.Errorf("parsing header schema: %w", err)
	}
	dfr.schema = schema
	dfr.datumReader.SetSchema(schema)

	codecName := "null"
	if codecBytes, ok := metaMap[metaCodecKey].([]byte); ok && len(codecBytes) > 0 {
		codecName = string(codecBytes)
	}
	codec, err := lookupCodec(codecName)
	if err != nil {
		return err
	}
	dfr.codec = codec

	dfr.pos = dec.Pos()
	if dfr.pos+16 > len(dfr.data) {
		return ErrTruncated
	}
	copy(dfr.sync[:], dfr.data[dfr.pos:dfr.pos+16])
	dfr.pos += 16
	return nil
}

// Schema returns the writer schema recorded in the file header.
func (dfr *DataFileReader) Schema() Schema { return dfr.schema }

// HasNext reports whether another record is available, advancing into the
// next block (decompressing and sync-checking it) if the current one is
// exhausted.
func (dfr *DataFileReader) HasNext() (bool, error) {
	if dfr.blockRemaining > 0 {
		return true, nil
	}
	if dfr.pos >= len(dfr.data) {
		return false, nil
	}
	return dfr.advanceBlock()
}

func (dfr *DataFileReader) advanceBlock() (bool, error) {
	dec := NewBinaryDecoder(dfr.data)
	dec.pos = dfr.pos
	count, err := dec.ReadLong()
	if err != nil {
		return false, err
	}
	blockLen, err := dec.ReadLong()
	if err != nil {
		return false, err
	}
	start := dec.Pos()
	end := start + int(blockLen)
	if end > len(dfr.data) {
		return false, ErrTruncated
	}
	compressed := dfr.data[start:end]
	plain, err := dfr.codec.Decode(compressed)
	if err != nil {
		return false, fmt.Errorf("decompressing block: %w", err)
	}

	syncStart := end
	syncEnd := syncStart + 16
	if syncEnd > len(dfr.data) {
		return false, ErrTruncated
	}
	if !bytes.Equal(dfr.data[syncStart:syncEnd], dfr.sync[:]) {
		return false, ErrCorruptSync
	}

	dfr.block = NewBinaryDecoder(plain)
	dfr.blockRemaining = count
	dfr.pos = syncEnd
	return count > 0, nil
}

// Next decodes the next record into target, which must be a non-nil
// pointer, per DatumReader.Read's contract.
func (dfr *DataFileReader) Next(target interface{}) error {
	has, err := dfr.HasNext()
	if err != nil {
		return err
	}
	if !has {
		return io.EOF
	}
	if err := dfr.datumReader.Read(target, dfr.block); err != nil {
		return err
	}
	dfr.blockRemaining--
	return nil
}

// buildIndex scans every block header (without decompressing payloads) to
// build a (file_offset, row_count) index supporting random access.
func (dfr *DataFileReader) buildIndex() error {
	if dfr.index != nil {
		return nil
	}
	pos := dfr.headerEnd()
	var idx []blockIndexEntry
	for pos < len(dfr.data) {
		dec := NewBinaryDecoder(dfr.data)
		dec.pos = pos
		count, err := dec.ReadLong()
		if err != nil {
			return err
		}
		blockLen, err := dec.ReadLong()
		if err != nil {
			return err
		}
		idx = append(idx, blockIndexEntry{offset: pos, rows: count})
		pos = dec.Pos() + int(blockLen) + 16
	}
	dfr.index = idx
	return nil
}

func (dfr *DataFileReader) headerEnd() int {
	dec := NewBinaryDecoder(dfr.data)
	dec.pos = len(ocfMagic)
	_, _ = decodeValue(headerMapSchema, dec)
	return dec.Pos() + 16
}

// Seek positions the reader so the next Next returns the row-th record
// (0-based, across the whole file): it jumps to the block containing that
// row and skips the rows before it within that block, without decoding
// the records of any earlier block.
func (dfr *DataFileReader) Seek(row int64) error {
	if err := dfr.buildIndex(); err != nil {
		return err
	}
	var seen int64
	for _, entry := range dfr.index {
		if row < seen+entry.rows {
			dfr.pos = entry.offset
			dfr.blockRemaining = 0
			dfr.block = nil
			if _, err := dfr.advanceBlock(); err != nil {
				return err
			}
			toSkip := row - seen
			for i := int64(0); i < toSkip; i++ {
				if err := skip(dfr.schema, dfr.block); err != nil {
					return err
				}
				dfr.blockRemaining--
			}
			return nil
		}
		seen += entry.rows
	}
	return fmt.Errorf("%w: row %d out of range", ErrTruncated, row)
}
