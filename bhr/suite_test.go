package bhr_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestBHR(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "BHR Pipeline Suite")
}
