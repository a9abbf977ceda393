package propagator

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestPropagator(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Propagator Suite")
}
