package vision

import (
	"fmt"
	"image"
	"log"

	"gocv.io/x/gocv"
)

// FaceEmbedder is the contract for identity descriptor extraction from one
// canonical-size aligned face crop
type FaceEmbedder interface {
	Embed(aligned gocv.Mat) ([]float32, error)
}

// EmbeddingClient wraps an ArcFace-style embedding network loaded through the
// gocv DNN module. The wrapper always L2-normalizes the output regardless of
// the upstream model's own normalization.
type EmbeddingClient struct {
	Net       gocv.Net
	Enabled   bool
	ModelName string

	InputSizeW int
	InputSizeH int
}

// NewEmbeddingClient loads the embedding model, preferring CUDA when available
func NewEmbeddingClient(modelPath string) *EmbeddingClient {
	if modelPath == "" {
		log.Println("recognition: model path is empty, disabling embedding extraction")
		return &EmbeddingClient{Enabled: false}
	}

	net := gocv.ReadNet(modelPath, "")
	if net.Empty() {
		log.Printf("recognition: ERROR - ReadNet returned an empty network for %s. Check file path and integrity.", modelPath)
		return &EmbeddingClient{Enabled: false}
	}
	log.Printf("recognition: successfully loaded embedding model from %s", modelPath)

	cudaBackendErr := net.SetPreferableBackend(gocv.NetBackendCUDA)
	cudaTargetErr := net.SetPreferableTarget(gocv.NetTargetCUDA)
	if cudaBackendErr == nil && cudaTargetErr == nil {
		log.Println("recognition: Set backend/target to CUDA")
	} else {
		net.SetPreferableBackend(gocv.NetBackendDefault)
		net.SetPreferableTarget(gocv.NetTargetCPU)
		log.Println("recognition: Set backend/target to CPU (Default)")
	}

	return &EmbeddingClient{
		Net:        net,
		Enabled:    true,
		ModelName:  "arcface",
		InputSizeW: 112,
		InputSizeH: 112,
	}
}

func (e *EmbeddingClient) Close() {
	if e != nil && e.Enabled {
		e.Net.Close()
		log.Printf("recognition: closed %s network", e.ModelName)
		e.Enabled = false
	}
}

// Embed extracts the identity descriptor for one aligned face crop. The
// result is always unit-norm.
func (e *EmbeddingClient) Embed(aligned gocv.Mat) ([]float32, error) {
	if e == nil || !e.Enabled {
		return nil, fmt.Errorf("embedding model not loaded")
	}
	if aligned.Empty() {
		return nil, fmt.Errorf("cannot embed empty face crop")
	}

	rgb := gocv.NewMat()
	defer rgb.Close()
	gocv.CvtColor(aligned, &rgb, gocv.ColorBGRToRGB)

	blob := gocv.BlobFromImage(rgb, 1.0/255.0, image.Pt(e.InputSizeW, e.InputSizeH), gocv.NewScalar(0, 0, 0, 0), false, false)
	defer blob.Close()

	e.Net.SetInput(blob, "")
	output := e.Net.Forward("")
	defer output.Close()

	flattened := output.Reshape(1, 1)
	defer flattened.Close()

	size := flattened.Cols()
	if size == 0 {
		return nil, fmt.Errorf("embedding model produced empty output")
	}
	if size != EmbeddingSize {
		return nil, fmt.Errorf("unexpected embedding length %d, want %d", size, EmbeddingSize)
	}

	embedding := make([]float32, size)
	allZero := true
	for i := 0; i < size; i++ {
		embedding[i] = flattened.GetFloatAt(0, i)
		if embedding[i] != 0 {
			allZero = false
		}
	}
	if allZero {
		return nil, fmt.Errorf("embedding model produced a zero vector")
	}

	return NormalizeEmbedding(embedding), nil
}

// EmbedBatch extracts embeddings for a list of aligned crops, silently
// dropping per-item failures. Partial extraction failure never aborts the
// batch; the success count against attempts is logged instead.
func (e *EmbeddingClient) EmbedBatch(aligned []gocv.Mat) [][]float32 {
	var out [][]float32
	for i := range aligned {
		emb, err := e.Embed(aligned[i])
		if err != nil {
			log.Printf("recognition: dropping crop %d from batch: %v", i, err)
			continue
		}
		out = append(out, emb)
	}
	log.Printf("recognition: extracted %d of %d embeddings", len(out), len(aligned))
	return out
}
