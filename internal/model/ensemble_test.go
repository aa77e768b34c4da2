package model_test

import (
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/dynlearn/internal/model"
	"github.com/san-kum/dynlearn/internal/regress"
)

// failingRegressor rejects everything, standing in for a regressor whose
// fit cannot converge.
type failingRegressor struct{}

func (f *failingRegressor) Compute(inputs [][]float64, outputs, noise []float64) error {
	return errors.New("deliberately broken")
}
func (f *failingRegressor) OptimizeHyperparams() error { return errors.New("deliberately broken") }
func (f *failingRegressor) Query(x []float64) (float64, float64, error) {
	return 0, 0, errors.New("deliberately broken")
}
func (f *failingRegressor) Samples() [][]float64 { return nil }

// linearObs builds the canonical scenario: outcome = 2*state, action 0.
func linearObs() []model.Observation {
	obs := make([]model.Observation, 3)
	for i := range obs {
		s := float64(i)
		obs[i] = model.Observation{
			State:   []float64{s},
			Action:  []float64{0},
			Outcome: []float64{2 * s},
		}
	}
	return obs
}

func nearestFactory() regress.Regressor { return regress.NewNearest() }

var _ = Describe("Ensemble", func() {
	var ens *model.Ensemble

	BeforeEach(func() {
		ens = model.NewEnsemble(nearestFactory)
	})

	Describe("before any learn", func() {
		It("fails every query and accessor with ErrNotFitted", func() {
			_, _, err := ens.Predict([]float64{0, 0})
			Expect(err).To(MatchError(model.ErrNotFitted))

			_, _, err = ens.PredictM([]float64{0, 0})
			Expect(err).To(MatchError(model.ErrNotFitted))

			_, err = ens.Samples()
			Expect(err).To(MatchError(model.ErrNotFitted))

			_, err = ens.Observations()
			Expect(err).To(MatchError(model.ErrNotFitted))

			_, err = ens.Limits()
			Expect(err).To(MatchError(model.ErrNotFitted))

			Expect(ens.SaveData("unused")).To(MatchError(model.ErrNotFitted))
		})
	})

	Describe("learn", func() {
		It("rejects an empty observation set", func() {
			Expect(ens.Learn(nil, false)).To(MatchError(model.ErrInvalidInput))
		})

		It("rejects dimensionally inconsistent observations", func() {
			obs := linearObs()
			obs[1].State = []float64{1, 2}
			Expect(ens.Learn(obs, false)).To(MatchError(model.ErrInvalidInput))
		})

		It("keeps prior fitted state when a later learn gets invalid input", func() {
			Expect(ens.Learn(linearObs(), false)).To(Succeed())

			Expect(ens.Learn(nil, false)).To(MatchError(model.ErrInvalidInput))

			mu, _, err := ens.Predict([]float64{1, 0})
			Expect(err).NotTo(HaveOccurred())
			Expect(mu[0]).To(BeNumerically("~", 2, 1e-9))
		})

		It("recovers training outcomes at training inputs", func() {
			Expect(ens.Learn(linearObs(), false)).To(Succeed())

			mu, sigma, err := ens.Predict([]float64{1, 0})
			Expect(err).NotTo(HaveOccurred())
			Expect(mu).To(HaveLen(1))
			Expect(mu[0]).To(BeNumerically("~", 2, 1e-9))
			Expect(sigma).To(BeNumerically("==", 0))
		})

		It("is deterministic across repeated fits", func() {
			other := model.NewEnsemble(nearestFactory)
			Expect(ens.Learn(linearObs(), false)).To(Succeed())
			Expect(other.Learn(linearObs(), false)).To(Succeed())

			x := []float64{0.7, 0}
			mu1, ss1, err := ens.PredictM(x)
			Expect(err).NotTo(HaveOccurred())
			mu2, ss2, err := other.PredictM(x)
			Expect(err).NotTo(HaveOccurred())

			Expect(mu1).To(Equal(mu2))
			Expect(ss1).To(Equal(ss2))
		})
	})

	Describe("predictm", func() {
		BeforeEach(func() {
			obs := []model.Observation{
				{State: []float64{0, 0}, Action: []float64{0}, Outcome: []float64{1, 2, 3}},
				{State: []float64{1, 1}, Action: []float64{1}, Outcome: []float64{2, 4, 6}},
				{State: []float64{2, 0}, Action: []float64{0}, Outcome: []float64{3, 6, 9}},
			}
			Expect(ens.Learn(obs, false)).To(Succeed())
		})

		It("returns vectors of length pred_dim", func() {
			mu, ss, err := ens.PredictM([]float64{0.5, 0.5, 0.5})
			Expect(err).NotTo(HaveOccurred())
			Expect(mu).To(HaveLen(3))
			Expect(ss).To(HaveLen(3))
		})

		It("averages predictm variances into predict's scalar uncertainty", func() {
			x := []float64{0.5, 0.5, 0.5}

			_, ss, err := ens.PredictM(x)
			Expect(err).NotTo(HaveOccurred())
			_, sigma, err := ens.Predict(x)
			Expect(err).NotTo(HaveOccurred())

			want := (ss[0] + ss[1] + ss[2]) / 3
			Expect(sigma).To(Equal(want))
		})

		It("rejects query vectors of the wrong length", func() {
			_, _, err := ens.PredictM([]float64{1})
			Expect(err).To(MatchError(model.ErrDimensionMismatch))
		})
	})

	Describe("statistics", func() {
		It("computes robust limits from percentiles of absolute values", func() {
			obs := make([]model.Observation, 100)
			for i := range obs {
				obs[i] = model.Observation{
					State:   []float64{float64(i)},
					Action:  []float64{0},
					Outcome: []float64{0},
				}
			}
			Expect(ens.Learn(obs, false)).To(Succeed())

			limits, err := ens.Limits()
			Expect(err).NotTo(HaveOccurred())
			Expect(limits).To(HaveLen(2))
			Expect(limits[0]).To(BeNumerically("~", 94.05, 1e-9))
			Expect(limits[1]).To(BeNumerically("==", 0))
		})

		It("updates limits without refitting when onlyLimits is set", func() {
			Expect(ens.Learn(linearObs(), true)).To(Succeed())

			limits, err := ens.Limits()
			Expect(err).NotTo(HaveOccurred())
			Expect(limits).To(HaveLen(2))

			_, _, err = ens.Predict([]float64{1, 0})
			Expect(err).To(MatchError(model.ErrNotFitted))
			_, err = ens.Samples()
			Expect(err).To(MatchError(model.ErrNotFitted))
		})
	})

	Describe("accessors", func() {
		BeforeEach(func() {
			Expect(ens.Learn(linearObs(), false)).To(Succeed())
		})

		It("returns the fitted feature and outcome matrices", func() {
			samples, err := ens.Samples()
			Expect(err).NotTo(HaveOccurred())
			Expect(samples).To(Equal([][]float64{{0, 0}, {1, 0}, {2, 0}}))

			outcomes, err := ens.Observations()
			Expect(err).NotTo(HaveOccurred())
			Expect(outcomes).To(Equal([][]float64{{0}, {2}, {4}}))
		})

		It("hands out defensive copies", func() {
			samples, err := ens.Samples()
			Expect(err).NotTo(HaveOccurred())
			samples[0][0] = 99

			again, err := ens.Samples()
			Expect(err).NotTo(HaveOccurred())
			Expect(again[0][0]).To(BeNumerically("==", 0))
		})
	})

	Describe("per-dimension fit failures", func() {
		It("surfaces failed dimensions while keeping the successful ones", func() {
			calls := 0
			ens := model.NewEnsemble(func() regress.Regressor {
				calls++
				if calls == 2 {
					return &failingRegressor{}
				}
				return regress.NewNearest()
			})

			obs := []model.Observation{
				{State: []float64{0}, Action: []float64{0}, Outcome: []float64{0, 0}},
				{State: []float64{1}, Action: []float64{0}, Outcome: []float64{2, 3}},
			}
			err := ens.Learn(obs, false)
			Expect(err).To(MatchError(model.ErrFitFailure))

			var fitErr model.FitError
			Expect(errors.As(err, &fitErr)).To(BeTrue())
			Expect(fitErr.Dims()).To(Equal([]int{1}))

			// The partially fitted model replaced the state; querying the
			// broken dimension reports which one it is.
			_, _, err = ens.PredictM([]float64{1, 0})
			var dimErr *model.DimError
			Expect(errors.As(err, &dimErr)).To(BeTrue())
			Expect(dimErr.Dim).To(Equal(1))
		})

		It("treats all dimensions failing as a whole-model failure", func() {
			ens := model.NewEnsemble(func() regress.Regressor { return &failingRegressor{} })

			err := ens.Learn(linearObs(), false)
			Expect(err).To(MatchError(model.ErrFitFailure))

			var fitErr model.FitError
			Expect(errors.As(err, &fitErr)).To(BeFalse())

			_, _, err = ens.Predict([]float64{1, 0})
			Expect(err).To(MatchError(model.ErrNotFitted))
		})
	})

	Describe("dataset persistence", func() {
		It("invokes the snapshot writer on a full fit only", func() {
			var gotSamples, gotOutcomes [][]float64
			snapshots := 0
			ens.SetSnapshot(func(samples, outcomes [][]float64) error {
				snapshots++
				gotSamples, gotOutcomes = samples, outcomes
				return nil
			})

			Expect(ens.Learn(linearObs(), true)).To(Succeed())
			Expect(snapshots).To(Equal(0))

			Expect(ens.Learn(linearObs(), false)).To(Succeed())
			Expect(snapshots).To(Equal(1))
			Expect(gotSamples).To(Equal([][]float64{{0, 0}, {1, 0}, {2, 0}}))
			Expect(gotOutcomes).To(Equal([][]float64{{0}, {2}, {4}}))
		})

		It("tolerates snapshot writer failures", func() {
			ens.SetSnapshot(func(samples, outcomes [][]float64) error {
				return errors.New("disk full")
			})
			Expect(ens.Learn(linearObs(), false)).To(Succeed())
		})

		It("writes the text export without a trailing terminator", func() {
			Expect(ens.Learn(linearObs(), false)).To(Succeed())

			path := filepath.Join(GinkgoT().TempDir(), "data.txt")
			Expect(ens.SaveData(path)).To(Succeed())

			content, err := os.ReadFile(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(content)).To(Equal("0 0 0\n1 0 2\n2 0 4"))
		})
	})
})
