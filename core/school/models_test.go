package school

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/volatiletech/null/v8"
)

func TestCompleteness(t *testing.T) {
	tests := []struct {
		name string
		sch  School
		want int
	}{
		{name: "empty profile", sch: School{}, want: 0},
		{
			name: "one of four",
			sch:  School{Description: null.StringFrom("Sekolah unggulan")},
			want: 25,
		},
		{
			name: "two of four",
			sch: School{
				Description: null.StringFrom("Sekolah unggulan"),
				Website:     null.StringFrom("https://sman1.sch.id"),
			},
			want: 50,
		},
		{
			name: "three of four",
			sch: School{
				Description:  null.StringFrom("Sekolah unggulan"),
				Programs:     null.StringFrom("IPA, IPS, Bahasa"),
				Achievements: null.StringFrom("Juara OSN 2024"),
			},
			want: 75,
		},
		{
			name: "all four",
			sch: School{
				Description:  null.StringFrom("Sekolah unggulan"),
				Programs:     null.StringFrom("IPA, IPS, Bahasa"),
				Achievements: null.StringFrom("Juara OSN 2024"),
				Website:      null.StringFrom("https://sman1.sch.id"),
			},
			want: 100,
		},
		{
			name: "whitespace does not count",
			sch: School{
				Description: null.StringFrom("   "),
				Programs:    null.StringFrom("\t\n"),
				Website:     null.StringFrom("https://sman1.sch.id"),
			},
			want: 25,
		},
		{
			name: "non-null empty string does not count",
			sch:  School{Description: null.StringFrom("")},
			want: 0,
		},
		{
			name: "contact is not scored",
			sch:  School{Contact: null.StringFrom("08123456789")},
			want: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.sch.Completeness())
		})
	}
}
