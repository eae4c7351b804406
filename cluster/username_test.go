package cluster

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestCluster(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "cluster suite")
}

var _ = Describe("NormalizeUsername", func() {
	DescribeTable("valid names normalize to lower case",
		func(input, trimmed string) {
			got, err := NormalizeUsername(input, true, 32)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(trimmed))
		},
		Entry("already lower case", "alice", "alice"),
		Entry("mixed case folds to lower", "Alice_42", "alice_42"),
		Entry("surrounded by whitespace", "  bob  ", "bob"),
		Entry("digits and underscores only", "user_007", "user_007"),
	)

	DescribeTable("invalid names are rejected",
		func(input string) {
			_, err := NormalizeUsername(input, true, 32)
			Expect(err).To(HaveOccurred())
		},
		Entry("empty after trim", "   "),
		Entry("contains a space", "alice bob"),
		Entry("contains punctuation", "alice@bob"),
		Entry("contains a dash", "alice-bob"),
	)

	It("truncates to MaxUsernameLength", func() {
		got, err := NormalizeUsername("abcdefghij", false, 5)
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal("abcde"))
	})

	It("does not trim when trim is disabled", func() {
		_, err := NormalizeUsername("  bob  ", false, 32)
		Expect(err).To(HaveOccurred())
	})
})
