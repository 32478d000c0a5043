package onnx

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"yt-chatbot-be/pkg/embedding"

	tokenizer "github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
	ort "github.com/yalue/onnxruntime_go"
)

type Config struct {
	// ModelDir holds model.onnx and tokenizer.json of a sentence-transformers export.
	ModelDir          string
	SharedLibraryPath string
	ModelName         string
	MaxSequenceLength int
}

// Provider runs a sentence-transformers model (all-MiniLM-L6-v2 by default)
// in-process with ONNX Runtime, using mean pooling over the last hidden state.
type Provider struct {
	tok     *tokenizer.Tokenizer
	session *ort.DynamicAdvancedSession
	cfg     Config

	// the session is not safe for concurrent Run calls
	mu sync.Mutex
}

var _ embedding.EmbeddingProvider = &Provider{}

func NewProvider(cfg Config) (*Provider, error) {
	if cfg.ModelName == "" {
		cfg.ModelName = "all-MiniLM-L6-v2"
	}
	if cfg.MaxSequenceLength <= 0 {
		cfg.MaxSequenceLength = 256
	}

	tok, err := pretrained.FromFile(filepath.Join(cfg.ModelDir, "tokenizer.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to load tokenizer: %w", err)
	}

	if cfg.SharedLibraryPath != "" {
		ort.SetSharedLibraryPath(cfg.SharedLibraryPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer opts.Destroy()

	if err := opts.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableAll); err != nil {
		return nil, fmt.Errorf("failed to set graph optimization: %w", err)
	}

	session, err := ort.NewDynamicAdvancedSession(
		filepath.Join(cfg.ModelDir, "model.onnx"),
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{"last_hidden_state"},
		opts,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &Provider{
		tok:     tok,
		session: session,
		cfg:     cfg,
	}, nil
}

func (p *Provider) Name() string {
	return "onnx/" + p.cfg.ModelName
}

func (p *Provider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	inputs := make([]tokenizer.EncodeInput, len(texts))
	for i, t := range texts {
		inputs[i] = tokenizer.NewSingleEncodeInput(tokenizer.NewInputSequence(t))
	}

	encodings, err := p.tok.EncodeBatch(inputs, true)
	if err != nil {
		return nil, fmt.Errorf("tokenization failed: %w", err)
	}

	maxLen := 0
	for _, enc := range encodings {
		l := len(enc.GetIds())
		if l > p.cfg.MaxSequenceLength {
			l = p.cfg.MaxSequenceLength
		}
		if l > maxLen {
			maxLen = l
		}
	}

	batchSize := len(encodings)
	inputIds := make([]int64, batchSize*maxLen)
	attentionMask := make([]int64, batchSize*maxLen)
	tokenTypeIds := make([]int64, batchSize*maxLen)

	for i, enc := range encodings {
		ids, mask := truncate(enc.GetIds(), enc.GetAttentionMask(), maxLen)
		offset := i * maxLen
		for j := range ids {
			inputIds[offset+j] = int64(ids[j])
			attentionMask[offset+j] = int64(mask[j])
		}
	}

	shape := ort.NewShape(int64(batchSize), int64(maxLen))
	inputIdsTensor, err := ort.NewTensor(shape, inputIds)
	if err != nil {
		return nil, fmt.Errorf("failed to create input_ids tensor: %w", err)
	}
	defer inputIdsTensor.Destroy()

	attentionMaskTensor, err := ort.NewTensor(shape, attentionMask)
	if err != nil {
		return nil, fmt.Errorf("failed to create attention_mask tensor: %w", err)
	}
	defer attentionMaskTensor.Destroy()

	tokenTypeIdsTensor, err := ort.NewTensor(shape, tokenTypeIds)
	if err != nil {
		return nil, fmt.Errorf("failed to create token_type_ids tensor: %w", err)
	}
	defer tokenTypeIdsTensor.Destroy()

	outputs := make([]ort.Value, 1)

	p.mu.Lock()
	err = p.session.Run(
		[]ort.Value{inputIdsTensor, attentionMaskTensor, tokenTypeIdsTensor},
		outputs,
	)
	p.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}
	defer outputs[0].Destroy()

	outputTensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("output tensor is not float32 type")
	}

	// [batch, seq, hidden]
	outShape := outputTensor.GetShape()
	seqLen := outShape[1]
	hiddenDim := outShape[2]
	data := outputTensor.GetData()

	vectors := make([][]float32, batchSize)
	for i := 0; i < batchSize; i++ {
		pooled := make([]float32, hiddenDim)
		var count float32
		for j := int64(0); j < seqLen; j++ {
			if attentionMask[i*maxLen+int(j)] == 0 {
				continue
			}
			count++
			start := (int64(i)*seqLen + j) * hiddenDim
			for k := int64(0); k < hiddenDim; k++ {
				pooled[k] += data[start+k]
			}
		}
		if count > 0 {
			for k := range pooled {
				pooled[k] /= count
			}
		}
		vectors[i] = embedding.NormalizeVector(pooled)
	}
	return vectors, nil
}

// Close releases the session and the runtime environment.
func (p *Provider) Close() error {
	if p.session != nil {
		p.session.Destroy()
	}
	return ort.DestroyEnvironment()
}

// truncate cuts an encoding to limit tokens. When real tokens are cut, the
// last kept position takes the closing special token ([SEP]) so the model
// still sees a well-formed sequence.
func truncate(ids []int, mask []int, limit int) ([]int, []int) {
	if len(ids) <= limit {
		return ids, mask
	}

	last := -1
	for j := len(mask) - 1; j >= 0; j-- {
		if mask[j] != 0 {
			last = j
			break
		}
	}

	outIds := append([]int(nil), ids[:limit]...)
	outMask := append([]int(nil), mask[:limit]...)
	if last >= limit {
		outIds[limit-1] = ids[last]
		outMask[limit-1] = 1
	}
	return outIds, outMask
}
