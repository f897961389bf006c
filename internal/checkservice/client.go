package checkservice

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Client is the client API for the LicenseChecker service.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// CheckPackage asks the server whether pkg has a compatible license. A
// failing package is a successful call with Passed set to false.
func (c *Client) CheckPackage(ctx context.Context, pkg string, opts ...grpc.CallOption) (*CheckResponse, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, checkPackageMethod, wrapperspb.String(pkg), out, opts...); err != nil {
		return nil, err
	}
	return decodeResponse(out)
}
