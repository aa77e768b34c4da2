package model_test

import (
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/dynlearn/internal/model"
	"github.com/san-kum/dynlearn/internal/optim"
)

// brokenOptimizer always fails, standing in for an optimizer that cannot
// improve on any parameter vector.
type brokenOptimizer struct{}

func (b *brokenOptimizer) Minimize(obj optim.Objective, init []float64) ([]float64, float64, error) {
	return nil, 0, optim.ErrNoImprovement
}

var _ = Describe("MeanModel", func() {
	var mm *model.MeanModel

	BeforeEach(func() {
		mm = model.NewMeanModel(nil)
	})

	It("fails queries before any learn with ErrNotFitted", func() {
		_, _, err := mm.Predict([]float64{0, 0})
		Expect(err).To(MatchError(model.ErrNotFitted))

		_, err = mm.Params()
		Expect(err).To(MatchError(model.ErrNotFitted))

		Expect(mm.SaveData("unused")).To(MatchError(model.ErrNotFitted))
	})

	It("rejects an empty observation set", func() {
		Expect(mm.Learn(nil, false)).To(MatchError(model.ErrInvalidInput))
	})

	It("recovers a linear transition function", func() {
		Expect(mm.Learn(linearObs(), false)).To(Succeed())

		mu, sigma, err := mm.Predict([]float64{1, 0})
		Expect(err).NotTo(HaveOccurred())
		Expect(mu).To(HaveLen(1))
		Expect(mu[0]).To(BeNumerically("~", 2, 0.05))

		// No epistemic uncertainty: the placeholder is exactly zero.
		Expect(sigma).To(Equal([]float64{0}))
	})

	It("accepts onlyLimits for symmetry and still fits", func() {
		Expect(mm.Learn(linearObs(), true)).To(Succeed())

		mu, _, err := mm.Predict([]float64{1, 0})
		Expect(err).NotTo(HaveOccurred())
		Expect(mu[0]).To(BeNumerically("~", 2, 0.05))
	})

	It("warm starts from the previous parameters", func() {
		Expect(mm.Learn(linearObs(), false)).To(Succeed())
		first, err := mm.Params()
		Expect(err).NotTo(HaveOccurred())

		Expect(mm.Learn(linearObs(), false)).To(Succeed())
		second, err := mm.Params()
		Expect(err).NotTo(HaveOccurred())

		Expect(second).To(HaveLen(len(first)))
		for _, p := range second {
			Expect(p).To(BeNumerically("<", 1e6))
		}
	})

	It("rejects query vectors of the wrong length", func() {
		Expect(mm.Learn(linearObs(), false)).To(Succeed())

		_, _, err := mm.Predict([]float64{1})
		Expect(err).To(MatchError(model.ErrDimensionMismatch))
	})

	It("maps optimizer failure to ErrFitFailure and stays unfitted", func() {
		mm := model.NewMeanModel(&brokenOptimizer{})

		err := mm.Learn(linearObs(), false)
		Expect(err).To(MatchError(model.ErrFitFailure))

		_, _, err = mm.Predict([]float64{1, 0})
		Expect(err).To(MatchError(model.ErrNotFitted))
	})

	It("keeps the prior fit when a later learn fails", func() {
		Expect(mm.Learn(linearObs(), false)).To(Succeed())

		Expect(mm.Learn(nil, false)).To(MatchError(model.ErrInvalidInput))

		mu, _, err := mm.Predict([]float64{1, 0})
		Expect(err).NotTo(HaveOccurred())
		Expect(mu[0]).To(BeNumerically("~", 2, 0.05))
	})

	It("writes the text export without a trailing terminator", func() {
		Expect(mm.Learn(linearObs(), false)).To(Succeed())

		path := filepath.Join(GinkgoT().TempDir(), "data.txt")
		Expect(mm.SaveData(path)).To(Succeed())

		content, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(content)).To(Equal("0 0 0\n1 0 2\n2 0 4"))
	})

	It("distinguishes invalid input from fit failure", func() {
		err := mm.Learn(nil, false)
		Expect(errors.Is(err, model.ErrInvalidInput)).To(BeTrue())
		Expect(errors.Is(err, model.ErrFitFailure)).To(BeFalse())
	})
})
