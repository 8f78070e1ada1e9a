package memory

import (
	"context"
	"testing"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/jsonabi/internal/guestshim"
)

func instantiate(t *testing.T, ctx context.Context) (wazero.Runtime, api.Module) {
	t.Helper()
	rt := wazero.NewRuntime(ctx)
	mod, err := rt.Instantiate(ctx, guestshim.NewBuilder("unused").Build())
	if err != nil {
		rt.Close(ctx)
		t.Fatalf("failed to instantiate: %v", err)
	}
	return rt, mod
}

func TestWrap_Nil(t *testing.T) {
	if WrapMemory(nil) != nil {
		t.Error("expected nil for nil memory")
	}
	if WrapAllocator(context.Background(), nil) != nil {
		t.Error("expected nil for nil function")
	}
}

func TestWrapper_ReadWrite(t *testing.T) {
	ctx := context.Background()
	rt, mod := instantiate(t, ctx)
	defer rt.Close(ctx)

	mem := WrapMemory(mod.Memory())
	if err := mem.Write(100, []byte{1, 2, 3, 4}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	read, err := mem.Read(100, 4)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(read) != "\x01\x02\x03\x04" {
		t.Errorf("Read = %v", read)
	}

	if err := mem.WriteU32(8, 0xdeadbeef); err != nil {
		t.Fatal(err)
	}
	if err := mem.WriteU64(16, 1<<40|5); err != nil {
		t.Fatal(err)
	}
	if v, _ := mem.ReadU32(8); v != 0xdeadbeef {
		t.Errorf("ReadU32 = %#x", v)
	}
	if v, _ := mem.ReadU64(16); v != 1<<40|5 {
		t.Errorf("ReadU64 = %#x", v)
	}
	if mem.Size() != 65536 {
		t.Errorf("Size = %d", mem.Size())
	}
}

func TestWrapper_OutOfBounds(t *testing.T) {
	ctx := context.Background()
	rt, mod := instantiate(t, ctx)
	defer rt.Close(ctx)

	mem := WrapMemory(mod.Memory())
	if _, err := mem.Read(65530, 10); err == nil {
		t.Error("expected read error")
	}
	if err := mem.Write(65535, []byte{1, 2}); err == nil {
		t.Error("expected write error")
	}
	if _, err := mem.ReadU64(65532); err == nil {
		t.Error("expected ReadU64 error")
	}
	if err := mem.WriteU32(65534, 1); err == nil {
		t.Error("expected WriteU32 error")
	}
}

func TestAllocatorWrapper(t *testing.T) {
	ctx := context.Background()
	rt, mod := instantiate(t, ctx)
	defer rt.Close(ctx)

	alloc := WrapAllocator(ctx, mod.ExportedFunction(guestshim.ReallocName))
	p, err := alloc.Alloc(10, 1)
	if err != nil {
		t.Fatal(err)
	}
	if p == 0 {
		t.Fatal("null allocation")
	}
	if err := alloc.Free(p, 10, 1); err != nil {
		t.Fatal(err)
	}
	q, _ := alloc.Alloc(10, 1)
	if q != p {
		t.Errorf("allocation after free = %d, want %d", q, p)
	}
}
