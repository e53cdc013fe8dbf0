// Package gpuid allocates and tracks identifiers for GPU objects.
//
// # Overview
//
// Every adapter, device and resource created through the driver layer is
// named by an identity.Id, a packed (index, generation, backend) triple
// printed as Id(0,1,vk). Ids are never minted by the driver: the caller
// reserves them from a hub.Hub first and passes them in, and the driver
// echoes the same id back whether creation succeeds or fails.
//
// # Packages
//
//   - identity: the Id type, backends and the per-kind Registry
//   - hub: one Registry per resource kind, plus implicit pipeline ids
//   - driver: creates HAL objects under caller-supplied ids
//   - cmd/idreplay: replays a fixed creation scenario and prints its ids
//
// # Implicit layouts
//
// A pipeline created without an explicit layout derives its bind group
// layouts from the shaders. The caller reserves those ids up front:
//
//	h := hub.New()
//	implicit := h.ImplicitPipelineIds(identity.Vulkan, 4)
//	pipeline := h.Next(hub.RenderPipeline, identity.Vulkan)
//	_, err := g.DeviceCreateRenderPipeline(device, desc, pipeline, &implicit)
//
// Group i of the derived layout is registered under implicit.Groups[i].
//
// # Logging
//
// gpuid is silent by default. See [SetLogger].
package gpuid
