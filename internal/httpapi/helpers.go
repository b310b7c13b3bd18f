package httpapi

import (
	"github.com/blackswan-colony/simcore/internal/tick"
	"github.com/blackswan-colony/simcore/pkg/gpubatch"
	"github.com/blackswan-colony/simcore/pkg/models"
	"github.com/blackswan-colony/simcore/pkg/scheduler"
)

// kernelProfileReq is the request-side shape of a gpu/flags patch,
// converted into a gpubatch.KernelProfile before being carried by the
// set_gpu_config intent.
type kernelProfileReq struct {
	BaseKernelTicks       int64
	MixedPrecisionSpeedup float64
	WarmupTicks           int64
}

func tickIntentSetCorruptionConfig(patch map[string]float64) tick.Intent {
	return tick.Intent{Kind: tick.IntentSetCorruptionConfig, ConfigPatch: patch}
}

func tickIntentSetGPUConfig(patch map[string]float64, opKind string, profile *kernelProfileReq) tick.Intent {
	in := tick.Intent{Kind: tick.IntentSetGPUConfig, ConfigPatch: patch}
	if opKind != "" {
		in.GPUOpKind = models.OpKind(opKind)
	}
	if profile != nil {
		in.GPUProfile = gpubatch.KernelProfile{
			BaseKernelTicks:       profile.BaseKernelTicks,
			MixedPrecisionSpeedup: profile.MixedPrecisionSpeedup,
			WarmupTicks:           profile.WarmupTicks,
		}
	}
	return in
}

// parsePolicy resolves a policy name to its PolicyKind, defaulting to
// FCFS for anything unrecognized rather than rejecting the request, so
// an unknown policy name switches the session to FCFS.
func parsePolicy(name string) scheduler.PolicyKind {
	switch scheduler.PolicyKind(name) {
	case scheduler.PolicySJF, scheduler.PolicyEDF, scheduler.PolicyHeteroAware, scheduler.PolicyFCFS:
		return scheduler.PolicyKind(name)
	default:
		return scheduler.PolicyFCFS
	}
}
