package scanning

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"google.golang.org/api/googleapi"

	"github.com/smartspend/smartspend/internal/category"
)

// fakeGenerator scripts one response per model and records every attempt.
type fakeGenerator struct {
	responses map[string]string
	faults    map[string]error
	calls     []string
	closed    bool
}

func newFakeGenerator() *fakeGenerator {
	return &fakeGenerator{
		responses: make(map[string]string),
		faults:    make(map[string]error),
	}
}

func (f *fakeGenerator) Generate(ctx context.Context, model string, prompt string, pngData []byte) (string, error) {
	f.calls = append(f.calls, model)
	if err, ok := f.faults[model]; ok {
		return "", err
	}
	if resp, ok := f.responses[model]; ok {
		return resp, nil
	}
	return "", fmt.Errorf("model %s: 404 not found", model)
}

func (f *fakeGenerator) Close() error {
	f.closed = true
	return nil
}

// pngImage is a minimal payload that already carries the PNG content type so
// no conversion kicks in during tests.
var pngImage = pngBytes()

func pngBytes() []byte {
	// 1x1 transparent PNG
	return []byte{
		0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
		0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
		0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
		0x0a, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
		0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
		0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
	}
}

const validResponse = `{"mercado": "Mercado Central", "data": "2026-01-30", "total": 150.00, "itens": [
	{"nome": "Detergente", "valor": 10, "quantidade": 1},
	{"nome": "Arroz", "valor": 140, "quantidade": 1}
]}`

var _ = Describe("NewDispatcher", func() {
	It("should fail with no generators", func() {
		_, err := NewDispatcher(nil, []string{"model-a"})
		Expect(err).To(MatchError(ContainSubstring("credential")))
	})

	It("should fail with no models", func() {
		_, err := NewDispatcher([]Generator{newFakeGenerator()}, nil)
		Expect(err).To(MatchError(ContainSubstring("model")))
	})
})

var _ = Describe("Dispatcher", func() {
	var (
		genA, genB *fakeGenerator
		models     []string
		dispatcher *Dispatcher
		data       *ReceiptData
		err        error
	)

	BeforeEach(func() {
		genA = newFakeGenerator()
		genB = newFakeGenerator()
		models = []string{"model-1", "model-2"}
	})

	JustBeforeEach(func() {
		dispatcher, err = NewDispatcher([]Generator{genA, genB}, models)
		Expect(err).NotTo(HaveOccurred())
		data, err = dispatcher.ScanReceipt(context.Background(), pngImage, "image/png")
	})

	When("the first attempt succeeds", func() {
		BeforeEach(func() {
			genA.responses["model-1"] = validResponse
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should not attempt any pair after the first success", func() {
			Expect(genA.calls).To(Equal([]string{"model-1"}))
			Expect(genB.calls).To(BeEmpty())
		})

		It("should apply the categorizer to every item", func() {
			Expect(data.Items[0].Category).To(Equal(category.Limpeza))
			Expect(data.Items[1].Category).To(Equal(category.Alimentos))
		})

		It("should pick the primary category by item majority with first-encounter ties", func() {
			Expect(data.Category).To(Equal(category.Limpeza))
		})
	})

	When("the model proposes categories of its own", func() {
		BeforeEach(func() {
			genA.responses["model-1"] = `{"mercado": "Loja", "total": 10, "itens": [{"nome": "Detergente", "valor": 10, "categoria": "Lazer"}]}`
		})

		It("should overwrite them with the categorizer's verdict", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(data.Items[0].Category).To(Equal(category.Limpeza))
		})
	})

	When("the receipt has no items", func() {
		BeforeEach(func() {
			genA.responses["model-1"] = `{"mercado": "Loja", "total": 10, "itens": []}`
		})

		It("should default the primary category to Outros", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(data.Category).To(Equal(category.Outros))
		})
	})

	When("the first model is unsupported on the first credential", func() {
		BeforeEach(func() {
			genA.faults["model-1"] = &googleapi.Error{Code: http.StatusNotFound, Message: "model not found"}
			genA.responses["model-2"] = validResponse
		})

		It("should continue to the next model on the same credential", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(genA.calls).To(Equal([]string{"model-1", "model-2"}))
			Expect(genB.calls).To(BeEmpty())
		})
	})

	When("the first credential is rate-limited", func() {
		BeforeEach(func() {
			genA.faults["model-1"] = &googleapi.Error{Code: http.StatusTooManyRequests, Message: "quota exceeded"}
			genB.responses["model-1"] = validResponse
		})

		It("should skip the credential's remaining models and advance", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(genA.calls).To(Equal([]string{"model-1"}))
			Expect(genB.calls).To(Equal([]string{"model-1"}))
		})
	})

	When("every attempt is exhausted", func() {
		BeforeEach(func() {
			genA.faults["model-1"] = &googleapi.Error{Code: http.StatusTooManyRequests, Message: "quota"}
			genB.faults["model-1"] = &googleapi.Error{Code: http.StatusInternalServerError, Message: "backend error"}
		})

		It("should visit each credential exactly once", func() {
			Expect(genA.calls).To(Equal([]string{"model-1"}))
			Expect(genB.calls).To(Equal([]string{"model-1"}))
		})

		It("should fail terminally with the last fault", func() {
			var channelErr *ChannelError
			Expect(errors.As(err, &channelErr)).To(BeTrue())
			Expect(channelErr.Kind).To(Equal(FaultExhausted))
			Expect(err.Error()).To(ContainSubstring("backend error"))
		})
	})

	When("an unclassified fault happens mid-matrix", func() {
		BeforeEach(func() {
			genA.faults["model-1"] = errors.New("something odd")
			genA.responses["model-2"] = validResponse
		})

		It("should be treated like a missing model and continue", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(genA.calls).To(Equal([]string{"model-1", "model-2"}))
		})
	})

	When("an unclassified fault happens on the last attempt", func() {
		BeforeEach(func() {
			genA.faults["model-1"] = &googleapi.Error{Code: http.StatusNotFound}
			genA.faults["model-2"] = &googleapi.Error{Code: http.StatusNotFound}
			genB.faults["model-1"] = &googleapi.Error{Code: http.StatusNotFound}
			genB.faults["model-2"] = errors.New("something odd")
		})

		It("should propagate it as the terminal failure", func() {
			var channelErr *ChannelError
			Expect(errors.As(err, &channelErr)).To(BeTrue())
			Expect(channelErr.Kind).To(Equal(FaultUnclassified))
			Expect(err.Error()).To(ContainSubstring("something odd"))
		})
	})

	When("the response body cannot be parsed", func() {
		BeforeEach(func() {
			genA.responses["model-1"] = "this is not json"
		})

		It("should fail with a content fault", func() {
			var contentErr *ContentError
			Expect(errors.As(err, &contentErr)).To(BeTrue())
		})

		It("should not retry against other credentials", func() {
			Expect(genA.calls).To(Equal([]string{"model-1"}))
			Expect(genB.calls).To(BeEmpty())
		})
	})

	When("closing the dispatcher", func() {
		BeforeEach(func() {
			genA.responses["model-1"] = validResponse
		})

		It("should close every generator", func() {
			Expect(dispatcher.Close()).To(Succeed())
			Expect(genA.closed).To(BeTrue())
			Expect(genB.closed).To(BeTrue())
		})
	})
})

var _ = Describe("classifyFault", func() {
	It("should classify API 404s as NotFound", func() {
		Expect(classifyFault(&googleapi.Error{Code: http.StatusNotFound})).To(Equal(FaultNotFound))
	})

	It("should classify rate-limit and server codes as Exhausted", func() {
		Expect(classifyFault(&googleapi.Error{Code: http.StatusTooManyRequests})).To(Equal(FaultExhausted))
		Expect(classifyFault(&googleapi.Error{Code: http.StatusInternalServerError})).To(Equal(FaultExhausted))
		Expect(classifyFault(&googleapi.Error{Code: http.StatusServiceUnavailable})).To(Equal(FaultExhausted))
	})

	It("should classify other API codes as Unclassified", func() {
		Expect(classifyFault(&googleapi.Error{Code: http.StatusBadRequest})).To(Equal(FaultUnclassified))
	})

	It("should see through error wrapping", func() {
		wrapped := fmt.Errorf("generating content: %w", &googleapi.Error{Code: http.StatusNotFound})
		Expect(classifyFault(wrapped)).To(Equal(FaultNotFound))
	})

	It("should fall back to message matching", func() {
		Expect(classifyFault(errors.New("model xyz not found"))).To(Equal(FaultNotFound))
		Expect(classifyFault(errors.New("resource has been exhausted"))).To(Equal(FaultExhausted))
		Expect(classifyFault(errors.New("rate limit hit"))).To(Equal(FaultExhausted))
		Expect(classifyFault(errors.New("connection reset"))).To(Equal(FaultUnclassified))
	})
})
