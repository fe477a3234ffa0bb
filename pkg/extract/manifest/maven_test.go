package manifest

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/multierr"

	"github.com/matzehuels/stackscan/pkg/errors"
	"github.com/matzehuels/stackscan/pkg/purl"
)

const testPOM = `<?xml version="1.0" encoding="UTF-8"?>
<project xmlns="http://maven.apache.org/POM/4.0.0">
  <parent>
    <groupId>com.example</groupId>
    <artifactId>parent</artifactId>
    <version>1.0.0</version>
  </parent>
  <artifactId>app</artifactId>
  <properties>
    <app.version>2.1.0</app.version>
    <jackson.version>${jackson.major}.15.2</jackson.version>
    <jackson.major>2</jackson.major>
  </properties>
  <dependencyManagement>
    <dependencies>
      <dependency>
        <groupId>org.slf4j</groupId>
        <artifactId>slf4j-api</artifactId>
        <version>2.0.9</version>
      </dependency>
    </dependencies>
  </dependencyManagement>
  <dependencies>
    <dependency>
      <groupId>com.example</groupId>
      <artifactId>core</artifactId>
      <version>${app.version}</version>
    </dependency>
    <dependency>
      <groupId>com.fasterxml.jackson.core</groupId>
      <artifactId>jackson-databind</artifactId>
      <version>${jackson.version}</version>
    </dependency>
    <dependency>
      <groupId>org.slf4j</groupId>
      <artifactId>slf4j-api</artifactId>
    </dependency>
    <dependency>
      <groupId>${project.groupId}</groupId>
      <artifactId>sibling</artifactId>
      <version>${project.version}</version>
      <classifier>tests</classifier>
      <type>test-jar</type>
      <scope>test</scope>
    </dependency>
  </dependencies>
</project>`

func TestParsePOM(t *testing.T) {
	got, err := parsePOM("pom.xml", testPOM)
	if err != nil {
		t.Fatalf("parsePOM: %v", err)
	}

	want := []Dependency{
		{Section: "compile", PURL: mavenPURL("com.example", "core", "2.1.0", nil)},
		{Section: "compile", PURL: mavenPURL("com.fasterxml.jackson.core", "jackson-databind", "2.15.2", nil)},
		{Section: "compile", PURL: mavenPURL("org.slf4j", "slf4j-api", "2.0.9", nil)},
		{Section: "test", PURL: mavenPURL("com.example", "sibling", "1.0.0", map[string]string{"type": "test-jar", "classifier": "tests"})},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("parsePOM mismatch (-want +got):\n%s", diff)
	}
}

func TestParsePOM_Unresolved(t *testing.T) {
	content := `<project>
  <properties><a>${b}</a><b>${a}</b></properties>
  <dependencies>
    <dependency><groupId>g</groupId><artifactId>x</artifactId><version>${a}</version></dependency>
    <dependency><groupId>g</groupId><artifactId>y</artifactId><version>1</version></dependency>
    <dependency><groupId>g</groupId><version>1</version></dependency>
  </dependencies>
</project>`

	got, err := parsePOM("pom.xml", content)
	errs := multierr.Errors(err)
	if len(errs) != 2 {
		t.Fatalf("errors = %v, want 2", errs)
	}
	for _, e := range errs {
		if !errors.Is(e, errors.ErrCodeInvalidManifest) {
			t.Errorf("error %v has code %q", e, errors.GetCode(e))
		}
	}
	if len(got) != 2 {
		t.Fatalf("got %d dependencies, want 2", len(got))
	}
	if got[0].PURL.Version != "${a}" {
		t.Errorf("cyclic version = %q, want literal ${a}", got[0].PURL.Version)
	}
}

func TestParsePOM_Malformed(t *testing.T) {
	got, err := parsePOM("pom.xml", "<project><dependencies>")
	if got != nil || !errors.Is(err, errors.ErrCodeInvalidManifest) {
		t.Errorf("parsePOM = %v, %v", got, err)
	}
}

func mavenPURL(group, artifact, version string, quals map[string]string) purl.PackageURL {
	q := map[string]string{"classifier": ""}
	for k, v := range quals {
		q[k] = v
	}
	return purl.PackageURL{Type: purl.TypeMaven, Namespace: group, Name: artifact, Version: version, Qualifiers: q}
}
