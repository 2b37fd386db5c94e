package transport

import (
	"context"
	"math"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"jellyflow/internal/telemetry"
)

const snapshotMethod = "/jellyflow.v1.Progress/Snapshot"

// ProgressServer serves read-only decode progress.
type ProgressServer interface {
	Snapshot(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

var progressDesc = grpc.ServiceDesc{
	ServiceName: "jellyflow.v1.Progress",
	HandlerType: (*ProgressServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Snapshot", Handler: snapshotHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "jellyflow/v1/progress.proto",
}

func RegisterProgressServer(s grpc.ServiceRegistrar, srv ProgressServer) {
	s.RegisterService(&progressDesc, srv)
}

func snapshotHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ProgressServer).Snapshot(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: snapshotMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ProgressServer).Snapshot(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// boardServer exposes a telemetry.Board.
type boardServer struct {
	board *telemetry.Board
}

func (b boardServer) Snapshot(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return EncodeSnapshots(b.board.Snapshots())
}

// EncodeSnapshots renders snapshots as {"inputs": [...]}. Throughput is
// omitted while it is undefined.
func EncodeSnapshots(snaps []telemetry.Snapshot) (*structpb.Struct, error) {
	inputs := make([]any, 0, len(snaps))
	for _, s := range snaps {
		m := map[string]any{
			"input":          s.Input,
			"records":        s.Records,
			"frames":         s.Frames,
			"bytes":          s.Bytes,
			"decode_seconds": s.DecodeTime.Seconds(),
			"elapsed":        s.Elapsed.Seconds(),
			"done":           s.Done,
		}
		if tp, ok := s.Throughput(); ok {
			m["throughput"] = tp
		}
		if s.ErrKind != "" {
			m["err_kind"] = s.ErrKind
			m["err"] = s.Err
		}
		inputs = append(inputs, m)
	}
	return structpb.NewStruct(map[string]any{"inputs": inputs})
}

// DecodeSnapshots is the inverse of EncodeSnapshots.
func DecodeSnapshots(st *structpb.Struct) []telemetry.Snapshot {
	list := st.GetFields()["inputs"].GetListValue().GetValues()
	out := make([]telemetry.Snapshot, 0, len(list))
	for _, v := range list {
		f := v.GetStructValue().GetFields()
		out = append(out, telemetry.Snapshot{
			Input:      f["input"].GetStringValue(),
			Records:    int64(f["records"].GetNumberValue()),
			Frames:     int64(f["frames"].GetNumberValue()),
			Bytes:      int64(f["bytes"].GetNumberValue()),
			DecodeTime: seconds(f["decode_seconds"].GetNumberValue()),
			Elapsed:    seconds(f["elapsed"].GetNumberValue()),
			Done:       f["done"].GetBoolValue(),
			ErrKind:    f["err_kind"].GetStringValue(),
			Err:        f["err"].GetStringValue(),
		})
	}
	return out
}

func seconds(s float64) time.Duration { return time.Duration(math.Round(s * float64(time.Second))) }
