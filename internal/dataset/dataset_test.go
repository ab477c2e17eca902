package dataset

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/wgangp/internal/tensor"
)

func idxImages(n, rows, cols int) []byte {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.BigEndian, []uint32{idxImagesMagic, uint32(n), uint32(rows), uint32(cols)})
	for i := 0; i < n*rows*cols; i++ {
		buf.WriteByte(byte(i % 256))
	}
	return buf.Bytes()
}

func idxLabels(labels []byte) []byte {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.BigEndian, []uint32{idxLabelsMagic, uint32(len(labels))})
	buf.Write(labels)
	return buf.Bytes()
}

func gz(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestReadIDXImages(t *testing.T) {
	images, err := ReadIDXImages(bytes.NewReader(idxImages(2, 3, 4)))
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 3, 4}, images.Shape())
	assert.Equal(t, 23.0, images.Data()[23])

	// Large enough to be converted in parallel chunks.
	images, err = ReadIDXImages(bytes.NewReader(idxImages(3, 64, 64)))
	require.NoError(t, err)
	for i, v := range images.Data() {
		require.Equal(t, float64(i%256), v)
	}
}

func TestReadIDXImagesRejectsBadInput(t *testing.T) {
	_, err := ReadIDXImages(bytes.NewReader(idxLabels([]byte{1})))
	assert.Error(t, err, "label magic")

	raw := idxImages(2, 3, 4)
	_, err = ReadIDXImages(bytes.NewReader(raw[:len(raw)-1]))
	assert.Error(t, err, "truncated")

	var huge bytes.Buffer
	_ = binary.Write(&huge, binary.BigEndian, []uint32{idxImagesMagic, maxIDXItems, maxIDXSide, maxIDXSide})
	_, err = ReadIDXImages(&huge)
	assert.ErrorContains(t, err, "exceeds")
}

func TestMNISTLoadFiltersDigits(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, MNISTTrainImages+".gz"), gz(t, idxImages(4, 2, 2)), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, MNISTTrainLabels), idxLabels([]byte{3, 1, 3, 7}), 0o600))

	all, err := MNIST{Dir: dir}.Load()
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{4, 2, 2}, all.Shape())

	threes, err := MNIST{Dir: dir, Digits: []int{3}}.Load()
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 2, 2}, threes.Shape())
	assert.Equal(t, []float64{8, 9, 10, 11}, threes.Data()[4:])

	limited, err := MNIST{Dir: dir, Limit: 1}.Load()
	require.NoError(t, err)
	assert.Equal(t, 1, limited.Dim(0))

	_, err = MNIST{Dir: dir, Digits: []int{5}}.Load()
	assert.Error(t, err)
}

func TestMNISTMissingFiles(t *testing.T) {
	_, err := MNIST{Dir: t.TempDir()}.Load()
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestInMemory(t *testing.T) {
	images := tensor.Full(tensor.Shape{2, 2, 2}, 255)
	ds, err := NewInMemory(images)
	require.NoError(t, err)

	got, err := ds.Load()
	require.NoError(t, err)
	got.Data()[0] = 0
	again, err := ds.Load()
	require.NoError(t, err)
	assert.Equal(t, 255.0, again.Data()[0], "Load must return a copy")

	_, err = NewInMemory(tensor.Full(tensor.Shape{2, 2}, 1))
	assert.Error(t, err)
	_, err = NewInMemory(tensor.Full(tensor.Shape{1, 2, 2}, 300))
	assert.Error(t, err)
}
