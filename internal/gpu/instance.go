package gpu

import (
	"context"
	"log/slog"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/ext_debug_utils"
	"github.com/vkngwrapper/extensions/v3/khr_portability_enumeration"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
)

const validationLayer = "VK_LAYER_KHRONOS_validation"

// Window is the native window the renderer draws into.
type Window interface {
	// InstanceProcAddr returns vkGetInstanceProcAddr as loaded by the
	// windowing library.
	InstanceProcAddr() unsafe.Pointer
	// RequiredInstanceExtensions lists the instance extensions the window
	// needs to create a surface.
	RequiredInstanceExtensions() []string
	CreateSurface(instance core1_0.Instance, surfaceDriver khr_surface.ExtensionDriver) (khr_surface.Surface, error)
	// DrawableSize is the size of the drawable area in pixels.
	DrawableSize() (width, height int)
}

// InstanceOptions configures instance creation.
type InstanceOptions struct {
	ApplicationName string
	// Validation enables the Khronos validation layer and routes its
	// messages to the logger.
	Validation bool
}

// Instance owns the Vulkan instance, the optional debug messenger and the
// window surface. It is handed to the Device, which destroys it last.
type Instance struct {
	window Window

	driver        core1_0.CoreInstanceDriver
	debugDriver   ext_debug_utils.ExtensionDriver
	messenger     ext_debug_utils.DebugUtilsMessenger
	surfaceDriver khr_surface.ExtensionDriver
	surface       khr_surface.Surface
}

// NewInstance loads the Vulkan driver through the window, creates the
// instance and the window surface.
func NewInstance(window Window, opts InstanceOptions) (*Instance, error) {
	globalDriver, err := core.CreateDriverFromProcAddr(window.InstanceProcAddr())
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "load vulkan driver"), ErrInstanceCreation)
	}
	return newInstance(globalDriver, window, opts)
}

func newInstance(globalDriver core1_0.GlobalDriver, window Window, opts InstanceOptions) (*Instance, error) {
	info := core1_0.InstanceCreateInfo{
		ApplicationName:    opts.ApplicationName,
		ApplicationVersion: common.CreateVersion(1, 0, 0),
		EngineName:         "scop",
		EngineVersion:      common.CreateVersion(1, 0, 0),
		APIVersion:         common.Vulkan1_2,
	}

	available, _, err := globalDriver.AvailableExtensions()
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "enumerate instance extensions"), ErrInstanceCreation)
	}

	for _, ext := range window.RequiredInstanceExtensions() {
		if _, ok := available[ext]; !ok {
			return nil, errors.Mark(errors.Newf("missing instance extension %s", ext), ErrInstanceCreation)
		}
		info.EnabledExtensionNames = append(info.EnabledExtensionNames, ext)
	}

	if _, ok := available[khr_portability_enumeration.ExtensionName]; ok {
		info.EnabledExtensionNames = append(info.EnabledExtensionNames, khr_portability_enumeration.ExtensionName)
		info.Flags |= khr_portability_enumeration.InstanceCreateEnumeratePortability
	}

	if opts.Validation {
		layers, _, err := globalDriver.AvailableLayers()
		if err != nil {
			return nil, errors.Mark(errors.Wrap(err, "enumerate instance layers"), ErrInstanceCreation)
		}
		if _, ok := layers[validationLayer]; !ok {
			return nil, errors.Mark(errors.Newf("validation layer %s not available, install the Vulkan SDK", validationLayer), ErrInstanceCreation)
		}

		info.EnabledLayerNames = append(info.EnabledLayerNames, validationLayer)
		info.EnabledExtensionNames = append(info.EnabledExtensionNames, ext_debug_utils.ExtensionName)
		info.Next = messengerInfo()
	}

	handle, _, err := globalDriver.CreateInstance(nil, info)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "create instance"), ErrInstanceCreation)
	}

	// Without a driver the loader has no vkDestroyInstance to release handle.
	inst := &Instance{window: window}
	inst.driver, err = globalDriver.BuildInstanceDriver(handle)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "build instance driver"), ErrInstanceCreation)
	}

	if opts.Validation {
		inst.debugDriver = ext_debug_utils.CreateExtensionDriverFromCoreDriver(inst.driver)
		if inst.debugDriver == nil {
			inst.destroy()
			return nil, errors.Mark(errors.Newf("instance extension %s not active", ext_debug_utils.ExtensionName), ErrInstanceCreation)
		}
		inst.messenger, _, err = inst.debugDriver.CreateDebugUtilsMessenger(nil, messengerInfo())
		if err != nil {
			inst.destroy()
			return nil, errors.Mark(errors.Wrap(err, "create debug messenger"), ErrInstanceCreation)
		}
	}

	inst.surfaceDriver = khr_surface.CreateExtensionDriverFromCoreDriver(inst.driver)
	if inst.surfaceDriver == nil {
		inst.destroy()
		return nil, errors.Mark(errors.Newf("instance extension %s not active", khr_surface.ExtensionName), ErrInstanceCreation)
	}
	inst.surface, err = window.CreateSurface(inst.driver.Instance(), inst.surfaceDriver)
	if err != nil {
		inst.destroy()
		return nil, errors.Mark(errors.Wrap(err, "create surface"), ErrInstanceCreation)
	}

	logger().Debug("instance created",
		slog.Int("extensions", len(info.EnabledExtensionNames)),
		slog.Bool("validation", opts.Validation))
	return inst, nil
}

func messengerInfo() ext_debug_utils.DebugUtilsMessengerCreateInfo {
	return ext_debug_utils.DebugUtilsMessengerCreateInfo{
		MessageSeverity: ext_debug_utils.SeverityError | ext_debug_utils.SeverityWarning,
		MessageType:     ext_debug_utils.TypeGeneral | ext_debug_utils.TypeValidation | ext_debug_utils.TypePerformance,
		UserCallback:    logValidation,
	}
}

func logValidation(msgType ext_debug_utils.DebugUtilsMessageTypeFlags, severity ext_debug_utils.DebugUtilsMessageSeverityFlags, data *ext_debug_utils.DebugUtilsMessengerCallbackData) bool {
	level := slog.LevelWarn
	if severity&ext_debug_utils.SeverityError != 0 {
		level = slog.LevelError
	}

	logger().Log(context.Background(), level, data.Message, slog.String("type", msgType.String()))
	return false
}

// Adapters queries every physical device visible to the instance.
func (i *Instance) Adapters() ([]*Adapter, error) {
	devices, _, err := i.driver.EnumeratePhysicalDevices()
	if err != nil {
		return nil, errors.Wrap(err, "enumerate physical devices")
	}

	adapters := make([]*Adapter, 0, len(devices))
	for _, device := range devices {
		adapter, err := queryAdapter(i, device)
		if err != nil {
			logger().Warn("skipping physical device", slog.Any("error", err))
			continue
		}
		adapters = append(adapters, adapter)
	}
	return adapters, nil
}

func (i *Instance) destroy() {
	if i.surface.Initialized() {
		i.surfaceDriver.DestroySurface(i.surface, nil)
		i.surface = khr_surface.Surface{}
	}

	if i.messenger.Initialized() {
		i.debugDriver.DestroyDebugUtilsMessenger(i.messenger, nil)
		i.messenger = ext_debug_utils.DebugUtilsMessenger{}
	}

	if i.driver != nil {
		i.driver.DestroyInstance(nil)
		i.driver = nil
	}
}

// Close destroys an instance that was never handed to a Device.
func (i *Instance) Close() {
	i.destroy()
}
