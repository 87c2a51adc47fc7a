package bracketintegrationtests

import (
	"testing"

	"github.com/farraranalytics/MBB-Survivor-sub001/integration_tests/testutils"
)

func TestMain(m *testing.M) {
	testutils.RunMain(m)
}
