package params_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/renosim/internal/params"
)

var _ = Describe("Set validation", func() {
	var p *params.Set

	BeforeEach(func() {
		p = params.Default()
	})

	It("accepts the defaults", func() {
		Expect(p.Validate()).To(Succeed())
	})

	It("rejects non-finite values", func() {
		p.MAPSetpoint = math.NaN()
		Expect(p.Validate()).To(MatchError(ContainSubstring("not finite")))

		p = params.Default()
		p.AutoregGain = math.Inf(1)
		Expect(p.Validate()).To(MatchError(ContainSubstring("not finite")))
	})

	It("rejects non-positive nominals", func() {
		p.CONominal = 0
		Expect(p.Validate()).To(MatchError(ContainSubstring("must be positive")))

		p = params.Default()
		p.BloodVolumeNominal = -5
		Expect(p.Validate()).To(MatchError(ContainSubstring("must be positive")))
	})

	It("rejects non-positive time constants", func() {
		p.TauADH = 0
		Expect(p.Validate()).To(MatchError(ContainSubstring("time constant")))
	})

	It("rejects fractions outside [0,1]", func() {
		p.ProxNaFrac = 1.2
		Expect(p.Validate()).To(MatchError(ContainSubstring("fraction")))

		p = params.Default()
		p.CDWaterFrac = -0.1
		Expect(p.Validate()).To(MatchError(ContainSubstring("fraction")))
	})

	It("requires a strictly ordered hormone cascade", func() {
		p.TauRenin = p.TauAngI
		Expect(p.Validate()).To(MatchError(ContainSubstring("tau_renin")))

		p = params.Default()
		p.TauAldosterone = p.TauAngII / 2
		Expect(p.Validate()).ToNot(Succeed())
	})

	It("requires feedback bounds to straddle unity", func() {
		p.TGFMin = 1.1
		Expect(p.Validate()).To(MatchError(ContainSubstring("tgf")))

		p = params.Default()
		p.TGFMax = 0.9
		Expect(p.Validate()).ToNot(Succeed())
	})

	It("requires a consistent pressure ladder", func() {
		p.GlomerularPNominal = p.BowmanPressure
		Expect(p.Validate()).To(MatchError(ContainSubstring("Bowman")))

		p = params.Default()
		p.MAPSetpoint = p.GlomerularPNominal - 1
		Expect(p.Validate()).ToNot(Succeed())
	})
})

var _ = Describe("Disease overrides", func() {
	It("lists the known disease states", func() {
		Expect(params.DiseaseNames()).To(ConsistOf(
			"heart-failure", "hypertension", "renal-dysfunction"))
	})

	It("rejects unknown names", func() {
		p := params.Default()
		Expect(p.ApplyDisease("gout")).To(MatchError(ContainSubstring("unknown disease")))
	})

	It("shifts the regulated pressure target for hypertension", func() {
		p := params.Default()
		Expect(p.ApplyDisease("hypertension")).To(Succeed())
		Expect(p.EffectiveMAPSetpoint()).To(BeNumerically(">", p.MAPSetpoint))
		Expect(p.Validate()).To(Succeed())
	})

	It("keeps overridden sets valid", func() {
		for _, name := range params.DiseaseNames() {
			p := params.Default()
			Expect(p.ApplyDisease(name)).To(Succeed())
			Expect(p.Validate()).To(Succeed(), name)
		}
	})
})

var _ = Describe("Clone", func() {
	It("detaches the copy from the original", func() {
		p := params.Default()
		c := p.Clone()
		c.MAPSetpoint = 120
		Expect(p.MAPSetpoint).To(Equal(93.0))
	})
})
