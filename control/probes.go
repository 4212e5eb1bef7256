package control

import "github.com/momentics/hioload-udp/api"

func registerCapabilityProbes(dp *DebugProbes, caps api.Capabilities) {
	dp.RegisterProbe("platform.os", func() any { return caps.OS })
	dp.RegisterProbe("udp.vector_recv", func() any { return caps.VectorRecv })
	dp.RegisterProbe("udp.vector_send", func() any { return caps.VectorSend })
	dp.RegisterProbe("udp.recv_timestamps", func() any { return caps.RecvTimestamps })
}
